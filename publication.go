package rascal

import (
	"encoding/hex"
	"encoding/json"
	"time"

	driver "github.com/rabbitmq/amqp091-go"
	"github.com/google/uuid"

	"github.com/rascal-go/rascal/cipher"
	"github.com/rascal-go/rascal/config"
	"go.bryk.io/pkg/errors"
	xlog "go.bryk.io/pkg/log"
)

var errEncryptionUnavailable = errors.New("publication: encryption profile configured but no cipher provider is available")

// Overrides adjusts a single publish call's behavior without mutating
// the publication's resolved configuration. RoutingKey is the
// shorthand form mentioned for publish(name, message, overrides).
type Overrides struct {
	RoutingKey  string
	MessageID   string
	ContentType string
	Headers     map[string]interface{}
	Mandatory   bool

	// RestoreRoutingHeaders asks Forward to stamp
	// rascal.restoreRoutingHeaders = true instead of the forwarding
	// contract's default of false.
	RestoreRoutingHeaders bool
}

// PublishResult reports the outcome of a single publish call: the
// stamped message ID, whether the broker confirmed the message, and
// the duration from the call to the confirmation, per the publication
// stats contract.
type PublishResult struct {
	MessageID string
	Confirmed bool
	Returned  bool
	Duration  time.Duration
}

// Publication is a named routing endpoint bound to a vhost's link(s).
type Publication struct {
	cfg    *config.Publication
	vhost  *runtimeVhost
	log    xlog.Logger
	cipher cipher.Provider
}

func newPublication(cfg *config.Publication, vhost *runtimeVhost, prov cipher.Provider, log xlog.Logger) *Publication {
	return &Publication{
		cfg:    cfg,
		vhost:  vhost,
		cipher: prov,
		log:    log.WithField("publication", cfg.Name),
	}
}

// Publish sends message (text, structured, or raw []byte) through this
// publication, stamping a fresh message ID unless overrides supplies
// one, encrypting the payload if the publication has an encryption
// profile, and blocking for the broker's confirmation if Confirm is set.
func (p *Publication) Publish(message interface{}, overrides *Overrides) (*PublishResult, error) {
	start := time.Now()
	if overrides == nil {
		overrides = &Overrides{}
	}

	body, contentType, err := encodeBody(message)
	if err != nil {
		return nil, errUnsupportedPayload(p.cfg.Name)
	}
	if overrides.ContentType != "" {
		contentType = overrides.ContentType
	}

	var headers driver.Table
	if len(overrides.Headers) > 0 {
		headers = driver.Table(overrides.Headers)
	}
	if p.cfg.Encryption != nil {
		body, headers, contentType, err = p.encrypt(body, contentType, headers)
		if err != nil {
			return nil, errEncryptionFailed(p.cfg.Name, err)
		}
	}

	messageID := overrides.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	routingKey := overrides.RoutingKey
	if routingKey == "" {
		routingKey = p.cfg.RoutingKey
	}

	msg := Message{
		MessageId:   messageID,
		ContentType: contentType,
		Body:        body,
		Headers:     headers,
	}
	if p.cfg.ReplyTo != "" {
		msg.ReplyTo = p.cfg.ReplyTo
	}

	l, err := p.vhost.connect(0)
	if err != nil {
		return nil, err
	}

	var confirmed bool
	if p.cfg.Confirm {
		confirmed, err = l.push(p.cfg.ChannelPool, p.cfg.Destination, routingKey, overrides.Mandatory, msg)
	} else {
		err = l.unsafePush(p.cfg.ChannelPool, p.cfg.Destination, routingKey, overrides.Mandatory, msg)
	}
	if err != nil {
		return nil, err
	}

	return &PublishResult{
		MessageID: messageID,
		Confirmed: confirmed,
		Duration:  time.Since(start),
	}, nil
}

// encrypt replaces body with its ciphertext, stashing the original
// content type and the hex-encoded IV in headers per the publishing
// contract — the same hex convention the encryption profile's key uses.
func (p *Publication) encrypt(body []byte, contentType string, headers driver.Table) ([]byte, driver.Table, string, error) {
	if p.cipher == nil {
		return nil, nil, "", errEncryptionUnavailable
	}
	ciphertext, iv, err := p.cipher.Encrypt(body)
	if err != nil {
		return nil, nil, "", err
	}
	if headers == nil {
		headers = driver.Table{}
	}
	headers["rascal.encryption.name"] = p.cfg.Encryption.Name
	headers["rascal.encryption.iv"] = hex.EncodeToString(iv)
	headers["rascal.encryption.originalContentType"] = contentType
	return ciphertext, headers, "application/octet-stream", nil
}

// encodeBody applies the content-type defaulting rules: raw bytes pass
// through as octet-stream, strings as plain text, anything else is
// serialized as JSON.
func encodeBody(message interface{}) ([]byte, string, error) {
	switch v := message.(type) {
	case []byte:
		return v, "application/octet-stream", nil
	case string:
		return []byte(v), "text/plain", nil
	default:
		body, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return body, "application/json", nil
	}
}
