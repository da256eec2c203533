/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package snmp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"golang.org/x/time/rate"

	"github.com/carverauto/netinventory/pkg/logger"
)

const (
	defaultPort           = 161
	defaultMaxRepetitions = 10
	defaultRetries        = 1
)

// ClientConfig tunes the gosnmp sessions opened by Client.
type ClientConfig struct {
	Port              uint16
	Retries           int
	MaxRepetitions    uint32
	RequestsPerSecond float64
	Burst             int
}

// Client is a Transport backed by gosnmp. Each call opens its own session
// so calls for different devices never share state.
type Client struct {
	config  ClientConfig
	limiter *rate.Limiter
	logger  logger.Logger
}

var _ Transport = (*Client)(nil)

// NewClient creates a Client. A non-positive RequestsPerSecond disables
// rate limiting.
func NewClient(config ClientConfig, log logger.Logger) *Client {
	if config.Port == 0 {
		config.Port = defaultPort
	}

	if config.MaxRepetitions == 0 {
		config.MaxRepetitions = defaultMaxRepetitions
	}

	if config.Retries < 0 {
		config.Retries = defaultRetries
	}

	limit := rate.Inf
	burst := config.Burst

	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)

		if burst <= 0 {
			burst = 1
		}
	}

	return &Client{
		config:  config,
		limiter: rate.NewLimiter(limit, burst),
		logger:  log,
	}
}

// Get implements Transport. timeout bounds the whole call.
func (c *Client) Get(ctx context.Context, target Target, oids []string, timeout time.Duration) ([]Varbind, error) {
	if len(oids) == 0 {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := withCallTimeout(ctx, timeout)
	defer cancel()

	session, err := c.open(callCtx, target, timeout)
	if err != nil {
		return nil, err
	}
	defer c.close(session)

	var out []Varbind

	for start := 0; start < len(oids); start += gosnmp.MaxOids {
		end := start + gosnmp.MaxOids
		if end > len(oids) {
			end = len(oids)
		}

		if start > 0 {
			if err := c.limiter.Wait(callCtx); err != nil {
				return nil, err
			}
		}

		packet, err := session.Get(oids[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSNMPGetFailed, target.Address, err)
		}

		if packet.Error != gosnmp.NoError {
			return nil, fmt.Errorf("%w: %s: %v", ErrSNMPError, target.Address, packet.Error)
		}

		out = appendPDUs(out, packet.Variables)
	}

	return out, nil
}

// Walk implements Transport. v2c and v3 use GETBULK, v1 falls back to GETNEXT.
// timeout bounds the whole walk, every page and retry included.
func (c *Client) Walk(ctx context.Context, target Target, root string, timeout time.Duration) ([]Varbind, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := withCallTimeout(ctx, timeout)
	defer cancel()

	session, err := c.open(callCtx, target, timeout)
	if err != nil {
		return nil, err
	}
	defer c.close(session)

	var pdus []gosnmp.SnmpPDU

	if session.Version == gosnmp.Version1 {
		pdus, err = session.WalkAll(root)
	} else {
		pdus, err = session.BulkWalkAll(root)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrSNMPWalkFailed, target.Address, root, err)
	}

	return appendPDUs(nil, pdus), nil
}

func (c *Client) open(ctx context.Context, target Target, timeout time.Duration) (*gosnmp.GoSNMP, error) {
	session, err := c.newSession(ctx, target, timeout)
	if err != nil {
		return nil, err
	}

	if err := session.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSNMPConnect, target.Address, err)
	}

	return session, nil
}

func (c *Client) close(session *gosnmp.GoSNMP) {
	if session.Conn == nil {
		return
	}

	if err := session.Conn.Close(); err != nil {
		c.logger.Debug().Err(err).Str("target", session.Target).Msg("Failed to close SNMP session")
	}
}

func (c *Client) newSession(ctx context.Context, target Target, timeout time.Duration) (*gosnmp.GoSNMP, error) {
	if target.Address == "" {
		return nil, ErrMissingAddress
	}

	port := target.Port
	if port == 0 {
		port = c.config.Port
	}

	session := &gosnmp.GoSNMP{
		Context:        ctx,
		Target:         target.Address,
		Port:           port,
		Timeout:        attemptTimeout(timeout, c.config.Retries),
		Retries:        c.config.Retries,
		MaxOids:        gosnmp.MaxOids,
		MaxRepetitions: c.config.MaxRepetitions,
	}

	if err := configureVersion(session, &target.Credential); err != nil {
		return nil, err
	}

	return session, nil
}

// withCallTimeout derives the deadline of one Get or Walk. gosnmp checks the
// session context between attempts and pages.
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

// attemptTimeout splits the call budget evenly across the first attempt and
// its retries.
func attemptTimeout(timeout time.Duration, retries int) time.Duration {
	if retries <= 0 || timeout <= 0 {
		return timeout
	}

	return timeout / time.Duration(retries+1)
}

// configureVersion sets up the session based on the credential version.
func configureVersion(session *gosnmp.GoSNMP, cred *Credential) error {
	switch cred.Version {
	case Version1:
		session.Version = gosnmp.Version1
		session.Community = cred.Community
	case Version2c, "":
		session.Version = gosnmp.Version2c
		session.Community = cred.Community
	case Version3:
		session.Version = gosnmp.Version3
		session.SecurityModel = gosnmp.UserSecurityModel

		usm := &gosnmp.UsmSecurityParameters{
			UserName: cred.Username,
		}

		configureV3Authentication(usm, cred)
		configureV3Privacy(usm, cred)

		session.SecurityParameters = usm
		session.MsgFlags = msgFlags(usm)
	default:
		return fmt.Errorf("%w for version: %s", ErrUnsupportedSNMPVersion, cred.Version)
	}

	return nil
}

func msgFlags(usm *gosnmp.UsmSecurityParameters) gosnmp.SnmpV3MsgFlags {
	switch {
	case usm.AuthenticationProtocol == gosnmp.NoAuth:
		return gosnmp.NoAuthNoPriv
	case usm.PrivacyProtocol == gosnmp.NoPriv:
		return gosnmp.AuthNoPriv
	default:
		return gosnmp.AuthPriv
	}
}

func configureV3Authentication(usm *gosnmp.UsmSecurityParameters, cred *Credential) {
	switch strings.ToUpper(cred.AuthProtocol) {
	case "MD5":
		usm.AuthenticationProtocol = gosnmp.MD5
	case "SHA":
		usm.AuthenticationProtocol = gosnmp.SHA
	case "SHA224":
		usm.AuthenticationProtocol = gosnmp.SHA224
	case "SHA256":
		usm.AuthenticationProtocol = gosnmp.SHA256
	case "SHA384":
		usm.AuthenticationProtocol = gosnmp.SHA384
	case "SHA512":
		usm.AuthenticationProtocol = gosnmp.SHA512
	default:
		usm.AuthenticationProtocol = gosnmp.NoAuth
		return
	}

	usm.AuthenticationPassphrase = cred.AuthPassword
}

func configureV3Privacy(usm *gosnmp.UsmSecurityParameters, cred *Credential) {
	switch strings.ToUpper(cred.PrivacyProtocol) {
	case "DES":
		usm.PrivacyProtocol = gosnmp.DES
	case "AES":
		usm.PrivacyProtocol = gosnmp.AES
	case "AES192":
		usm.PrivacyProtocol = gosnmp.AES192
	case "AES256":
		usm.PrivacyProtocol = gosnmp.AES256
	default:
		usm.PrivacyProtocol = gosnmp.NoPriv
		return
	}

	usm.PrivacyPassphrase = cred.PrivacyPassword
}

// appendPDUs converts PDUs, dropping exception values.
func appendPDUs(out []Varbind, pdus []gosnmp.SnmpPDU) []Varbind {
	for _, pdu := range pdus {
		switch pdu.Type {
		case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
			continue
		default:
		}

		out = append(out, Varbind{OID: pdu.Name, Type: pdu.Type, Value: pdu.Value})
	}

	return out
}
