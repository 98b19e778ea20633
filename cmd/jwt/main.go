package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/oarkflow/jwt"
	"github.com/oarkflow/jwt/secret"
)

const (
	version    = "1.0.0"
	defaultTTL = time.Hour
)

var ttlUnitMultipliers = map[string]time.Duration{
	"":        time.Second,
	"s":       time.Second,
	"sec":     time.Second,
	"secs":    time.Second,
	"second":  time.Second,
	"seconds": time.Second,
	"m":       time.Minute,
	"min":     time.Minute,
	"mins":    time.Minute,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"h":       time.Hour,
	"hr":      time.Hour,
	"hrs":     time.Hour,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"d":       24 * time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
}

type Config struct {
	Sign            bool
	Verify          bool
	Inspect         bool
	GenerateSecret  bool
	Alg             string
	SecretInput     string
	SecretLength    int
	KeyFile         string
	PubKeyFile      string
	KeyID           string
	ClaimsJSON      string
	TTLInput        string
	TTL             time.Duration
	AllowNone       bool
	Token           string
	CopyToClipboard bool
	ShowVersion     bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("jwt v%s\n", version)
		os.Exit(0)
	}

	if err := validateConfig(config); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	var err error
	switch {
	case config.GenerateSecret:
		err = runGenerateSecret(config)
	case config.Sign:
		err = runSign(config)
	case config.Verify:
		err = runVerify(config)
	case config.Inspect:
		err = runInspect(config)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func parseFlags() *Config {
	config := &Config{}

	flag.BoolVar(&config.Sign, "sign", false, "Sign a token from -claims")
	flag.BoolVar(&config.Verify, "verify", false, "Verify a token and print its claims")
	flag.BoolVar(&config.Inspect, "inspect", false, "Decode a token WITHOUT verification")
	flag.BoolVar(&config.GenerateSecret, "gen-secret", false, "Generate a signing secret and exit")
	flag.StringVar(&config.Alg, "alg", "HS256", "Signing algorithm (none, HS256/384/512, RS256/384/512, ES256/384/512)")
	flag.StringVar(&config.SecretInput, "secret", "", "Symmetric secret for HS algorithms")
	flag.IntVar(&config.SecretLength, "length", 32, "Length of generated secret")
	flag.StringVar(&config.KeyFile, "key", "", "PEM file holding the private key for RS/ES signing")
	flag.StringVar(&config.PubKeyFile, "pub", "", "PEM file holding the public key for RS/ES verification")
	flag.StringVar(&config.KeyID, "kid", "", "Key ID to stamp into the token header")
	flag.StringVar(&config.ClaimsJSON, "claims", "", "Claims as a JSON object")
	flag.StringVar(&config.TTLInput, "ttl", "", "Token lifetime, e.g. 30s, 15min, 2h, 7d (default 1h)")
	flag.BoolVar(&config.AllowNone, "allow-none", false, `Accept unsecured "none" tokens on verify`)
	flag.StringVar(&config.Token, "token", "", "Token to verify or inspect (also read from the first argument)")
	flag.BoolVar(&config.CopyToClipboard, "copy", false, "Copy the output to the clipboard")
	showVersion := flag.Bool("version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "jwt v%s - sign, verify and inspect JSON Web Tokens\n\n", version)
		fmt.Fprintf(os.Stderr, "USAGE:\n")
		fmt.Fprintf(os.Stderr, "  jwt -sign -alg HS256 -secret s3cret -claims '{\"sub\":\"42\"}' -ttl 15min\n")
		fmt.Fprintf(os.Stderr, "  jwt -sign -alg RS256 -key private.pem -claims '{\"sub\":\"42\"}'\n")
		fmt.Fprintf(os.Stderr, "  jwt -verify -secret s3cret -token <token>\n")
		fmt.Fprintf(os.Stderr, "  jwt -inspect -token <token>\n")
		fmt.Fprintf(os.Stderr, "  jwt -gen-secret -length 64 -copy\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	config.ShowVersion = *showVersion
	if config.Token == "" && flag.NArg() > 0 {
		config.Token = flag.Arg(0)
	}

	return config
}

func validateConfig(config *Config) error {
	modes := 0
	for _, on := range []bool{config.Sign, config.Verify, config.Inspect, config.GenerateSecret} {
		if on {
			modes++
		}
	}
	if modes != 1 {
		return fmt.Errorf("exactly one of -sign, -verify, -inspect or -gen-secret is required")
	}

	if config.Sign && config.ClaimsJSON == "" {
		return fmt.Errorf("-sign requires -claims")
	}
	if (config.Verify || config.Inspect) && config.Token == "" {
		return fmt.Errorf("a token is required (-token flag or first argument)")
	}
	if config.GenerateSecret && config.SecretLength <= 0 {
		return fmt.Errorf("secret length must be positive")
	}

	ttl, err := parseTTL(config.TTLInput)
	if err != nil {
		return err
	}
	config.TTL = ttl

	return nil
}

// parseTTL accepts "90", "90s", "15min", "2h", "7 days" and the like.
func parseTTL(input string) (time.Duration, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return defaultTTL, nil
	}
	i := 0
	for i < len(input) && (input[i] == '.' || (input[i] >= '0' && input[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid ttl %q", input)
	}
	value, err := strconv.ParseFloat(input[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl %q", input)
	}
	unit := strings.TrimSpace(input[i:])
	mult, ok := ttlUnitMultipliers[unit]
	if !ok {
		return 0, fmt.Errorf("unknown ttl unit %q", unit)
	}
	ttl := time.Duration(value * float64(mult))
	if ttl <= 0 {
		return 0, fmt.Errorf("ttl must be positive")
	}
	return ttl, nil
}

func runGenerateSecret(config *Config) error {
	s, err := secret.GenerateSecretString(config.SecretLength)
	if err != nil {
		return err
	}
	return emit(config, s)
}

func runSign(config *Config) error {
	var claims map[string]any
	if err := json.Unmarshal([]byte(config.ClaimsJSON), &claims); err != nil {
		return fmt.Errorf("invalid -claims JSON: %w", err)
	}

	now := time.Now().UTC()
	opts := []jwt.Option{
		jwt.WithClaims(claims),
		jwt.WithIssuedAt(),
		jwt.WithExpiresAt(now.Add(config.TTL)),
	}
	if config.KeyID != "" {
		opts = append(opts, jwt.WithKeyID(config.KeyID))
	}
	key, err := signingKey(config)
	if err != nil {
		return err
	}
	if !key.IsZero() {
		opts = append(opts, jwt.WithSecret(key))
	}

	token, err := jwt.New(config.Alg, opts...).Encode()
	if err != nil {
		return err
	}
	return emit(config, token)
}

func runVerify(config *Config) error {
	opts := []jwt.Option{}
	if config.SecretInput != "" {
		opts = append(opts, jwt.WithSecret(jwt.RawKey([]byte(config.SecretInput))))
	}
	if config.PubKeyFile != "" {
		pemText, err := os.ReadFile(config.PubKeyFile)
		if err != nil {
			return err
		}
		opts = append(opts, jwt.WithPublicKey(jwt.PEMKey(string(pemText))))
	}
	if config.AllowNone {
		opts = append(opts, jwt.WithAllowNone())
	}

	codec := jwt.New("", opts...)
	claims, err := codec.Decode(config.Token)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(map[string]any{
		"alg":    codec.Algorithm(),
		"header": codec.Header(),
		"claims": claims,
	}, "", "  ")
	if err != nil {
		return err
	}
	return emit(config, string(out))
}

func runInspect(config *Config) error {
	parts := strings.Split(config.Token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("token must have three segments")
	}
	header, err := decodeSegment(parts[0])
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	claims, err := decodeSegment(parts[1])
	if err != nil {
		return fmt.Errorf("claims: %w", err)
	}
	fmt.Fprintln(os.Stderr, "WARNING: signature NOT verified")
	out, err := json.MarshalIndent(map[string]any{
		"header": header,
		"claims": claims,
	}, "", "  ")
	if err != nil {
		return err
	}
	return emit(config, string(out))
}

func decodeSegment(seg string) (any, error) {
	raw, err := jwt.DecodeBase64URL(seg)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func signingKey(config *Config) (jwt.Key, error) {
	if config.SecretInput != "" {
		return jwt.RawKey([]byte(config.SecretInput)), nil
	}
	if config.KeyFile != "" {
		pemText, err := os.ReadFile(config.KeyFile)
		if err != nil {
			return jwt.Key{}, err
		}
		return jwt.PEMKey(string(pemText)), nil
	}
	return jwt.Key{}, nil
}

func emit(config *Config, output string) error {
	fmt.Println(output)
	if config.CopyToClipboard {
		if err := clipboard.WriteAll(output); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintln(os.Stderr, "✓ Copied to clipboard")
	}
	return nil
}
