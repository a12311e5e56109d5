package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"

	"github.com/JackobAssis/Joburguers/internal/config"
	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/ident"
	"github.com/JackobAssis/Joburguers/internal/loyalty"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrPhoneTaken         = errors.New("phone already registered")
	ErrAccountDisabled    = errors.New("account disabled")
)

// ValidationError reports a rejected registration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type AuthService struct {
	Config       config.Config
	Store        *storage.Storage
	Engine       *loyalty.Engine
	Logger       *slog.Logger
	FirebaseAuth *fbauth.Client
}

type AuthResult struct {
	AccessToken string
	ActorType   domain.ActorType
	ActorID     string
	ExpiresAt   time.Time
	Client      *domain.Client
	Admin       *domain.Admin
}

type RegisterInput struct {
	Name          string
	Phone         string
	Email         string
	Password      string
	ReferralPhone string
}

type LoginInput struct {
	Phone    string
	Password string
}

type GoogleLoginInput struct {
	IDToken string
	Email   string
	Name    string
	Phone   string
}

// RegisterClient validates the signup, creates the account and awards
// the registration bonus, plus the referral bonus when the referral
// phone resolves to another client. Blank passwords fall back to the
// last six digits of the phone; either way only the hash is stored.
func (s AuthService) RegisterClient(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	if len([]rune(in.Name)) < 3 {
		return nil, ValidationError{Field: "name", Message: "name must have at least 3 characters"}
	}
	if !ident.ValidPhone(in.Phone) {
		return nil, ValidationError{Field: "phone", Message: "phone must have 10 or 11 digits"}
	}
	password := in.Password
	if password == "" {
		password = ident.DefaultPassword(in.Phone)
	}
	if len(password) < 4 {
		return nil, ValidationError{Field: "password", Message: "password must have at least 4 characters"}
	}

	existing, err := s.Store.GetClientByPhone(ctx, in.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	client, err := s.Store.AddClient(ctx, domain.Client{
		Name:     in.Name,
		Phone:    ident.NormalizePhone(in.Phone),
		Email:    strings.TrimSpace(in.Email),
		Password: string(hash),
		Active:   true,
	})
	if err != nil {
		return nil, err
	}

	if updated, err := s.Engine.GrantRegistrationBonus(ctx, client.ID); err != nil {
		s.Logger.Error("registration bonus failed", "client", client.ID, "err", err)
	} else if updated != nil {
		client = updated
	}

	if in.ReferralPhone != "" {
		s.awardReferral(ctx, client, in.ReferralPhone)
	}

	return s.issueClientToken(ctx, client)
}

// awardReferral credits the referring client. Self-referrals and
// unknown phones are ignored rather than failing the signup.
func (s AuthService) awardReferral(ctx context.Context, newClient *domain.Client, referralPhone string) {
	referrer, err := s.Store.GetClientByPhone(ctx, referralPhone)
	if err != nil {
		s.Logger.Warn("referral lookup failed", "err", err)
		return
	}
	if referrer == nil || referrer.ID == newClient.ID {
		return
	}
	if _, err := s.Engine.GrantReferralBonus(ctx, referrer.ID); err != nil {
		s.Logger.Error("referral bonus failed", "referrer", referrer.ID, "err", err)
	}
}

func (s AuthService) ClientLogin(ctx context.Context, in LoginInput) (*AuthResult, error) {
	client, err := s.Store.GetClientByPhone(ctx, in.Phone)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrInvalidCredentials
	}
	if !client.Active {
		return nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(client.Password), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueClientToken(ctx, client)
}

func (s AuthService) AdminLogin(ctx context.Context, in LoginInput) (*AuthResult, error) {
	admin, err := s.Store.GetAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}
	if ident.NormalizePhone(admin.Phone) != ident.NormalizePhone(in.Phone) {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.Store.AddSession(ctx, domain.ActorAdmin, admin.Phone); err != nil {
		s.Logger.Warn("session record failed", "err", err)
	}
	token, exp, err := s.issueToken(domain.ActorAdmin, admin.Phone)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken: token,
		ActorType:   domain.ActorAdmin,
		ActorID:     admin.Phone,
		ExpiresAt:   exp,
		Admin:       admin,
	}, nil
}

// LoginWithGoogle verifies the ID token (Firebase Auth when configured,
// Google token validation otherwise) and signs the client in by email,
// registering a new account on first contact.
func (s AuthService) LoginWithGoogle(ctx context.Context, in GoogleLoginInput) (*AuthResult, error) {
	switch {
	case s.FirebaseAuth != nil:
		if _, err := s.FirebaseAuth.VerifyIDToken(ctx, in.IDToken); err != nil {
			return nil, fmt.Errorf("firebase token invalid: %w", err)
		}
	case s.Config.GoogleClientID != "":
		if _, err := idtoken.Validate(ctx, in.IDToken, s.Config.GoogleClientID); err != nil {
			return nil, fmt.Errorf("google token invalid: %w", err)
		}
	default:
		return nil, ErrInvalidToken
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, ValidationError{Field: "email", Message: "email is required"}
	}
	clients, err := s.Store.GetAllClients(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		if strings.ToLower(c.Email) == email {
			if !c.Active {
				return nil, ErrAccountDisabled
			}
			client := c
			return s.issueClientToken(ctx, &client)
		}
	}
	return s.RegisterClient(ctx, RegisterInput{
		Name:  in.Name,
		Phone: in.Phone,
		Email: email,
	})
}

// Logout removes the actor's sessions. The bearer token itself stays
// valid until expiry; sessions only track who is signed in.
func (s AuthService) Logout(ctx context.Context, actorType domain.ActorType, actorID string) error {
	return s.Store.ClearSessions(ctx, actorType, actorID)
}

// VerifyToken parses a bearer token and returns the actor it names.
func (s AuthService) VerifyToken(tokenString string) (domain.ActorType, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.Config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", "", ErrInvalidToken
	}
	actorType, ok := claims["actor_type"].(string)
	if !ok {
		return "", "", ErrInvalidToken
	}
	switch domain.ActorType(actorType) {
	case domain.ActorAdmin, domain.ActorClient:
		return domain.ActorType(actorType), sub, nil
	}
	return "", "", ErrInvalidToken
}

func (s AuthService) issueClientToken(ctx context.Context, client *domain.Client) (*AuthResult, error) {
	if _, err := s.Store.AddSession(ctx, domain.ActorClient, client.ID); err != nil {
		s.Logger.Warn("session record failed", "err", err)
	}
	token, exp, err := s.issueToken(domain.ActorClient, client.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken: token,
		ActorType:   domain.ActorClient,
		ActorID:     client.ID,
		ExpiresAt:   exp,
		Client:      client,
	}, nil
}

func (s AuthService) issueToken(actorType domain.ActorType, actorID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.Config.AccessTokenTTL)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        actorID,
		"actor_type": string(actorType),
		"exp":        exp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}
