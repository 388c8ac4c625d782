// Package signer builds the canonical query strings and HMAC-SHA256 signatures
// required by the exchange's signed (TRADE) endpoints.
//
// The exchange verifies the signature against the query string exactly as it
// is received, so parameters are kept in insertion order and are never sorted
// or percent-encoded. Callers must send the Signature's Query verbatim.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Param is a single request parameter.
type Param struct {
	Key   string
	Value interface{}
}

// Params is an ordered list of request parameters.
type Params []Param

// Add appends a parameter and returns the extended list.
func (p Params) Add(key string, value interface{}) Params {
	return append(p, Param{Key: key, Value: value})
}

// Canonical joins the parameters as key=value pairs with '&', in insertion order.
func (p Params) Canonical() string {
	var sb strings.Builder
	for i, param := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(param.Key)
		sb.WriteByte('=')
		sb.WriteString(formatValue(param.Value))
	}
	return sb.String()
}

// Signature is the result of signing a parameter list.
type Signature struct {
	Payload string // exact string that was signed
	Value   string // lowercase hex HMAC-SHA256
}

// Query returns the payload with the signature appended as the last parameter.
func (s Signature) Query() string {
	if s.Payload == "" {
		return "signature=" + s.Value
	}
	return s.Payload + "&signature=" + s.Value
}

// Sign computes the HMAC-SHA256 signature of the canonical form of params.
func Sign(params Params, secretKey string) Signature {
	payload := params.Canonical()
	return Signature{
		Payload: payload,
		Value:   HMACSHA256(payload, secretKey),
	}
}

// HMACSHA256 returns hex(HMAC-SHA256(secret, message)).
func HMACSHA256(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
