package auth

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/angelmondragon/cropmarket-backend/pkg/config"
	"google.golang.org/api/option"
)

// Verifier turns a bearer token into the user id it was issued for.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// JWTVerifier validates HS256 tokens minted by MintAccessToken.
type JWTVerifier struct {
	cfg config.JWTConfig
}

func NewJWTVerifier(cfg config.JWTConfig) (*JWTVerifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &JWTVerifier{cfg: cfg}, nil
}

func (v *JWTVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	claims, err := ParseAccessToken(v.cfg, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier validates Firebase Authentication ID tokens; the uid
// becomes the cart owner id.
type FirebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier builds the Firebase auth client for the configured project.
func NewFirebaseVerifier(ctx context.Context, cfg config.FirestoreConfig) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("token is required")
	}
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}
	if decoded.UID == "" {
		return "", fmt.Errorf("token missing uid")
	}
	return decoded.UID, nil
}

// NewVerifier selects the verifier configured by Auth.Provider.
func NewVerifier(ctx context.Context, cfg *config.Config) (Verifier, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderJWT:
		return NewJWTVerifier(cfg.JWT)
	case config.AuthProviderFirebase:
		return NewFirebaseVerifier(ctx, cfg.Firestore)
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.Auth.Provider)
	}
}
