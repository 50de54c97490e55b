package identity

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2/google"
)

const (
	GoogleCertsURL       = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	certsCacheKey        = "google_certs"
	defaultCertsTTL      = time.Hour
)

var (
	ErrInvalidToken  = errors.New("identity: invalid token")
	ErrNotConfigured = errors.New("identity: no verification method configured")
)

type Mode string

const (
	ModeFirebase Mode = "firebase"
	ModeSecret   Mode = "hs256"
	ModeNone     Mode = "none"
)

// Principal is the authenticated caller. OwnerID scopes every task query.
type Principal struct {
	OwnerID   string
	Email     string
	ExpiresAt time.Time
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
	Mode() Mode
}

type Config struct {
	ProjectID       string
	CredentialsPath string
	JWTSecret       string
	CertsURL        string
	HTTPClient      *http.Client
}

type TokenVerifier struct {
	mode       Mode
	projectID  string
	secret     []byte
	certsURL   string
	httpClient *http.Client
	cache      *cache.Cache
	now        func() time.Time
}

// NewVerifier picks Firebase mode when a project id is known (explicitly or
// from the service-account file), otherwise HS256 when a secret is set.
func NewVerifier(ctx context.Context, cfg Config) (*TokenVerifier, error) {
	projectID := cfg.ProjectID
	if projectID == "" && cfg.CredentialsPath != "" {
		id, err := ProjectIDFromCredentials(ctx, cfg.CredentialsPath)
		if err != nil {
			return nil, err
		}
		projectID = id
	}

	v := &TokenVerifier{
		mode:       ModeNone,
		projectID:  projectID,
		certsURL:   cfg.CertsURL,
		httpClient: cfg.HTTPClient,
		cache:      cache.New(time.Hour, 10*time.Minute),
		now:        time.Now,
	}
	if v.certsURL == "" {
		v.certsURL = GoogleCertsURL
	}
	if v.httpClient == nil {
		v.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	switch {
	case projectID != "":
		v.mode = ModeFirebase
	case cfg.JWTSecret != "":
		v.mode = ModeSecret
		v.secret = []byte(cfg.JWTSecret)
	}

	return v, nil
}

// ProjectIDFromCredentials reads the project id out of a service-account JSON file.
func ProjectIDFromCredentials(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("identity: read credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data)
	if err != nil {
		return "", fmt.Errorf("identity: parse credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return "", fmt.Errorf("identity: credentials file has no project_id")
	}
	return creds.ProjectID, nil
}

func (v *TokenVerifier) Mode() Mode {
	return v.mode
}

func (v *TokenVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" || token == "test" {
		return nil, ErrInvalidToken
	}

	key := tokenKey(token)
	if x, found := v.cache.Get(key); found {
		return x.(*Principal), nil
	}

	var (
		principal *Principal
		err       error
	)
	switch v.mode {
	case ModeFirebase:
		principal, err = v.verifyFirebase(ctx, token)
	case ModeSecret:
		principal, err = v.verifySecret(token)
	default:
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}

	if ttl := principal.ExpiresAt.Sub(v.now()); ttl > 0 {
		v.cache.Set(key, principal, ttl)
	}
	return principal, nil
}

func (v *TokenVerifier) verifyFirebase(ctx context.Context, token string) (*Principal, error) {
	certs, err := v.publicKeys(ctx)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := certs[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return principalFromClaims(claims, "sub", "user_id")
}

func (v *TokenVerifier) verifySecret(token string) (*Principal, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return principalFromClaims(claims, "user_id", "sub")
}

func principalFromClaims(claims jwt.MapClaims, keys ...string) (*Principal, error) {
	p := &Principal{}
	for _, k := range keys {
		if s, ok := claims[k].(string); ok && s != "" {
			p.OwnerID = s
			break
		}
	}
	if p.OwnerID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	p.Email, _ = claims["email"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		p.ExpiresAt = exp.Time
	}
	return p, nil
}

// publicKeys returns Google's signing keys by kid, cached per Cache-Control max-age.
func (v *TokenVerifier) publicKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	if x, found := v.cache.Get(certsCacheKey); found {
		return x.(map[string]*rsa.PublicKey), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: fetch certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: fetch certs: status %d", resp.StatusCode)
	}

	var pems map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&pems); err != nil {
		return nil, fmt.Errorf("identity: decode certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(pems))
	for kid, pem := range pems {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("identity: parse cert %s: %w", kid, err)
		}
		keys[kid] = key
	}

	v.cache.Set(certsCacheKey, keys, maxAge(resp.Header.Get("Cache-Control")))
	return keys, nil
}

var maxAgePattern = regexp.MustCompile(`max-age=(\d+)`)

func maxAge(header string) time.Duration {
	m := maxAgePattern.FindStringSubmatch(header)
	if m == nil {
		return defaultCertsTTL
	}
	seconds, err := strconv.Atoi(m[1])
	if err != nil || seconds <= 0 {
		return defaultCertsTTL
	}
	return time.Duration(seconds) * time.Second
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "tok:" + hex.EncodeToString(sum[:])
}
