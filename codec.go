// codec.go
package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Header constants forced onto every encoded token.
const (
	HeaderAlg  = "alg"
	HeaderTyp  = "typ"
	HeaderKid  = "kid"
	headerType = "JWT"
)

// Maximum token size to prevent resource exhaustion attacks
const maxTokenSize = 8192

// PeekFunc inspects parsed but not yet verified claims during Decode, before
// signature verification. Its only sanctioned effect is mutating codec
// configuration through the setters, e.g. supplying a verification key after
// inspecting an issuer claim. Claims passed to it must not be trusted.
type PeekFunc func(claims map[string]any)

// Codec encodes claims into signed compact tokens and decodes such tokens
// back into claims. A codec holds mutable configuration and the transient
// result of the last operation; it is not safe for concurrent use. The
// recommended pattern is one codec per token operation, discarded after use.
type Codec struct {
	alg         string
	claims      map[string]any
	header      map[string]any
	secret      Key
	public      Key
	expiresAt   time.Time
	notBefore   time.Time
	setIssuedAt bool
	allowNone   bool
	keySet      *KeySet
	nowFn       func() time.Time
	token       string
}

// Option customizes a Codec during construction.
type Option func(*Codec)

// WithSecret supplies the signing key: the symmetric secret for HS
// algorithms, or the private key for RS/ES algorithms.
func WithSecret(k Key) Option {
	return func(c *Codec) { c.secret = k }
}

// WithPublicKey supplies the verification key for RS/ES algorithms.
func WithPublicKey(k Key) Option {
	return func(c *Codec) { c.public = k }
}

// WithClaims copies the given claims into the codec.
func WithClaims(claims map[string]any) Option {
	return func(c *Codec) { _ = c.RegisterClaims(claims) }
}

// WithHeader merges custom header fields into the encoded token header.
// "typ" and "alg" are always forced by the codec and cannot be overridden.
func WithHeader(header map[string]any) Option {
	return func(c *Codec) {
		if c.header == nil {
			c.header = make(map[string]any, len(header))
		}
		for k, v := range header {
			c.header[k] = v
		}
	}
}

// WithKeyID sets the "kid" header field on encoded tokens.
func WithKeyID(kid string) Option {
	return func(c *Codec) {
		kid = strings.TrimSpace(kid)
		if kid == "" {
			return
		}
		if c.header == nil {
			c.header = make(map[string]any, 1)
		}
		c.header[HeaderKid] = kid
	}
}

// WithExpiresAt stamps an "exp" claim, overwriting any caller-supplied value.
func WithExpiresAt(t time.Time) Option {
	return func(c *Codec) { c.expiresAt = t }
}

// WithNotBefore stamps an "nbf" claim, overwriting any caller-supplied value.
func WithNotBefore(t time.Time) Option {
	return func(c *Codec) { c.notBefore = t }
}

// WithIssuedAt stamps an "iat" claim from the codec's clock at encode time,
// overwriting any caller-supplied value.
func WithIssuedAt() Option {
	return func(c *Codec) { c.setIssuedAt = true }
}

// WithAllowNone opts in to accepting unsecured "none" tokens on decode.
func WithAllowNone() Option {
	return func(c *Codec) { c.allowNone = true }
}

// WithKeySet attaches a JWK set consulted during decode when the token header
// carries a "kid".
func WithKeySet(ks *KeySet) Option {
	return func(c *Codec) { c.keySet = ks }
}

// WithNow injects a deterministic clock source (useful for tests).
func WithNow(fn func() time.Time) Option {
	return func(c *Codec) {
		if fn != nil {
			c.nowFn = fn
		}
	}
}

func defaultNow() time.Time { return time.Now().UTC() }

// New builds a codec for the given "alg" header value, e.g. "HS256", "RS384",
// "ES512" or "none".
func New(alg string, opts ...Option) *Codec {
	c := &Codec{alg: alg, nowFn: defaultNow}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SetAlgorithm replaces the codec's algorithm.
func (c *Codec) SetAlgorithm(alg string) { c.alg = alg }

// SetSecret replaces the signing key. Usable from a PeekFunc to supply a
// symmetric secret discovered from unverified claims.
func (c *Codec) SetSecret(k Key) { c.secret = k }

// SetPublicKey replaces the verification key. Usable from a PeekFunc.
func (c *Codec) SetPublicKey(k Key) { c.public = k }

// SetKeySet replaces the attached JWK set.
func (c *Codec) SetKeySet(ks *KeySet) { c.keySet = ks }

// Algorithm returns the current algorithm: the configured one, or after a
// decode, exactly the "alg" the token header advertised.
func (c *Codec) Algorithm() string { return c.alg }

// Claims returns the codec's claims map.
func (c *Codec) Claims() map[string]any { return c.claims }

// Header returns the custom header fields: the configured ones, or after a
// decode, the token's header with "typ" and "alg" stripped.
func (c *Codec) Header() map[string]any { return c.header }

// ExpiresAt returns the "exp" claim of the last successful decode.
func (c *Codec) ExpiresAt() time.Time { return c.expiresAt }

// NotBefore returns the "nbf" claim of the last successful decode.
func (c *Codec) NotBefore() time.Time { return c.notBefore }

// Token returns the compact token produced or consumed by the last operation.
func (c *Codec) Token() string { return c.token }

// RegisterClaim adds or updates a single claim key→value.
func (c *Codec) RegisterClaim(key string, value any) error {
	if key == "" {
		return errors.New("jwt: claim key required")
	}
	if c.claims == nil {
		c.claims = make(map[string]any)
	}
	c.claims[key] = value
	return nil
}

// RegisterClaims adds multiple claims at once.
func (c *Codec) RegisterClaims(claims map[string]any) error {
	if c.claims == nil {
		c.claims = make(map[string]any, len(claims))
	}
	for k, v := range claims {
		if k == "" {
			return errors.New("jwt: claim key required")
		}
		c.claims[k] = v
	}
	return nil
}

// RemoveClaim deletes a claim by key.
func (c *Codec) RemoveClaim(key string) {
	delete(c.claims, key)
}

// GetClaim returns the value for a claim, and a boolean indicating presence.
func (c *Codec) GetClaim(key string) (any, bool) {
	if c.claims == nil {
		return nil, false
	}
	v, ok := c.claims[key]
	return v, ok
}

// signingBufPool reuses the buffer that assembles the signing input.
var signingBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

// Encode assembles, serializes and signs the configured header and claims
// into a compact three-segment token. The stored token is cleared up front,
// so a failed encode never leaves a stale token behind.
func (c *Codec) Encode() (string, error) {
	c.token = ""

	alg, err := ParseAlgorithm(c.alg)
	if err != nil {
		return "", err
	}

	claims := make(map[string]any, len(c.claims)+3)
	for k, v := range c.claims {
		claims[k] = v
	}
	// timing claims overwrite caller-supplied values unconditionally
	if c.setIssuedAt {
		claims["iat"] = c.nowFn().Unix()
	}
	if !c.expiresAt.IsZero() {
		claims["exp"] = c.expiresAt.Unix()
	}
	if !c.notBefore.IsZero() {
		claims["nbf"] = c.notBefore.Unix()
	}

	header := make(map[string]any, len(c.header)+2)
	for k, v := range c.header {
		header[k] = v
	}
	header[HeaderTyp] = headerType
	header[HeaderAlg] = c.alg

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("jwt: encode header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("jwt: encode claims: %w", err)
	}

	ptr := signingBufPool.Get().(*[]byte)
	buf := (*ptr)[:0]
	buf = appendBase64URL(buf, headerJSON)
	buf = append(buf, '.')
	buf = appendBase64URL(buf, claimsJSON)
	signingInput := string(buf)
	*ptr = buf
	signingBufPool.Put(ptr)

	key, err := c.signingKey(alg)
	if err != nil {
		return "", err
	}
	sig, err := methodFor(alg).Sign(signingInput, key)
	if err != nil {
		return "", err
	}

	c.token = signingInput + "." + EncodeBase64URL(sig)
	return c.token, nil
}

// Decode parses and verifies a compact token and returns its claims.
// Transient state from any previous operation is reset first; claims, expiry
// and not-before are only repopulated when the whole decode succeeds, so a
// failed decode leaves them unset. Optional peek callbacks run after parsing
// but before signature verification.
func (c *Codec) Decode(token string, peek ...PeekFunc) (map[string]any, error) {
	c.alg = ""
	c.claims = nil
	c.header = nil
	c.expiresAt = time.Time{}
	c.notBefore = time.Time{}
	c.token = token

	if len(token) > maxTokenSize {
		return nil, ErrMalformedToken
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}
	headerRaw, err := DecodeBase64URL(parts[0])
	if err != nil {
		return nil, ErrMalformedToken
	}
	claimsRaw, err := DecodeBase64URL(parts[1])
	if err != nil {
		return nil, ErrMalformedToken
	}
	var header map[string]any
	if err := json.Unmarshal(headerRaw, &header); err != nil {
		return nil, ErrMalformedToken
	}
	claims, err := decodeClaims(claimsRaw)
	if err != nil {
		return nil, err
	}

	algName, _ := header[HeaderAlg].(string)
	if algName == "" {
		return nil, ErrMissingAlgorithm
	}
	// typ is informational only and never validated (RFC 7519 marks it
	// optional); both it and alg are consumed before the header is exposed.
	delete(header, HeaderTyp)
	delete(header, HeaderAlg)
	c.alg = algName
	c.header = header

	if kid, _ := header[HeaderKid].(string); kid != "" && c.keySet.Len() > 0 {
		if err := c.resolveKeySet(kid, algName); err != nil {
			return nil, err
		}
	}

	for _, fn := range peek {
		if fn != nil {
			fn(claims)
		}
	}

	alg, err := ParseAlgorithm(algName)
	if err != nil {
		return nil, err
	}
	if alg.Family == FamilyNone && !c.allowNone {
		return nil, ErrNoneNotAllowed
	}
	key, err := c.verifyKey(alg)
	if err != nil {
		return nil, err
	}
	sig, err := DecodeBase64URL(parts[2])
	if err != nil {
		return nil, ErrMalformedToken
	}
	signingInput := token[:len(parts[0])+1+len(parts[1])]
	if err := methodFor(alg).Verify(signingInput, sig, key); err != nil {
		return nil, err
	}

	now := c.nowFn().Unix()
	var expiresAt, notBefore time.Time
	if v, ok := claims["exp"]; ok {
		exp, err := numericClaim(v)
		if err != nil {
			return nil, fmt.Errorf(`%w: "exp" claim`, ErrMalformedToken)
		}
		// now == exp is still valid
		if now > exp {
			return nil, ErrTokenExpired
		}
		expiresAt = time.Unix(exp, 0).UTC()
	}
	if v, ok := claims["nbf"]; ok {
		nbf, err := numericClaim(v)
		if err != nil {
			return nil, fmt.Errorf(`%w: "nbf" claim`, ErrMalformedToken)
		}
		// now == nbf is still valid
		if now < nbf {
			return nil, ErrTokenNotYetValid
		}
		notBefore = time.Unix(nbf, 0).UTC()
	}

	c.expiresAt = expiresAt
	c.notBefore = notBefore
	c.claims = claims
	return claims, nil
}

// resolveKeySet materializes key material for the token's kid, if a matching
// entry exists. A missing match is a no-op: verification fails later with the
// same missing-key error whether the cause was no key set or no match.
func (c *Codec) resolveKeySet(kid, algName string) error {
	jwk, ok := c.keySet.Lookup(kid)
	if !ok {
		return nil
	}
	alg, err := ParseAlgorithm(algName)
	if err != nil {
		// verification will reject the algorithm itself
		return nil
	}
	if alg.Family == FamilyNone {
		return nil
	}
	key, err := jwk.materialize(alg.Family)
	if err != nil {
		return err
	}
	if alg.Family == FamilyHMAC {
		c.secret = key
	} else {
		c.public = key
	}
	return nil
}

// signingKey resolves the key material Encode hands to the signing strategy.
func (c *Codec) signingKey(alg Algorithm) (any, error) {
	switch alg.Family {
	case FamilyHMAC:
		return c.secret.symmetric()
	case FamilyRSA:
		if c.secret.IsZero() {
			return nil, ErrMissingPrivateKey
		}
		return c.secret.rsaPrivate()
	case FamilyECDSA:
		if c.secret.IsZero() {
			return nil, ErrMissingPrivateKey
		}
		return c.secret.ecdsaPrivate()
	}
	return nil, nil
}

// verifyKey resolves the key material Decode hands to the verifying strategy.
func (c *Codec) verifyKey(alg Algorithm) (any, error) {
	switch alg.Family {
	case FamilyHMAC:
		return c.secret.symmetric()
	case FamilyRSA:
		if c.public.IsZero() {
			return nil, ErrMissingPublicKey
		}
		return c.public.rsaPublic()
	case FamilyECDSA:
		if c.public.IsZero() {
			return nil, ErrMissingPublicKey
		}
		return c.public.ecdsaPublic()
	}
	return nil, nil
}

// decodeClaims parses the payload with json.Number so numeric claim values
// survive a round trip exactly.
func decodeClaims(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, ErrMalformedToken
	}
	claims, ok := v.(map[string]any)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

func numericClaim(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), nil
		}
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, ErrMalformedToken
}

// EncodeBase64URL returns raw URL-safe base64 encoding
func EncodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeBase64URL decodes URL-safe base64 string
func DecodeBase64URL(data string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(data)
}

func appendBase64URL(dst, raw []byte) []byte {
	n := base64.RawURLEncoding.EncodedLen(len(raw))
	off := len(dst)
	dst = append(dst, make([]byte, n)...)
	base64.RawURLEncoding.Encode(dst[off:], raw)
	return dst
}
