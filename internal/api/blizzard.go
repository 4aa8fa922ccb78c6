package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"pvp-analytics/internal/config"
	"pvp-analytics/internal/constants"
	"pvp-analytics/internal/domain"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	defaultTokenURL = "https://oauth.battle.net/token"
	defaultAPIHost  = "https://%s.api.blizzard.com"
)

// APIError is a non-200 answer from the Blizzard API.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// BlizzardClient reads WoW character profiles with a client-credentials
// token. The token is cached until shortly before it expires.
type BlizzardClient struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiHost      string
	client       *fasthttp.Client
	logger       zerolog.Logger

	tokenMu sync.Mutex
	token   accessToken
}

type accessToken struct {
	value     string
	expiresAt time.Time
}

func NewBlizzardClient(cfg *config.Config, logger zerolog.Logger) *BlizzardClient {
	return &BlizzardClient{
		clientID:     cfg.BlizzardClientID,
		clientSecret: cfg.BlizzardClientSecret,
		tokenURL:     defaultTokenURL,
		apiHost:      defaultAPIHost,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// GetPlayerData returns the class, race and faction of a character, or nil
// when the armory does not know it.
func (c *BlizzardClient) GetPlayerData(ctx context.Context, realm, name, region string) (*domain.PlayerProfile, error) {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		region = "eu"
	}

	profile, err := c.getCharacter(ctx, realm, name, region)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == fasthttp.StatusUnauthorized {
		c.invalidateToken()
		profile, err = c.getCharacter(ctx, realm, name, region)
	}
	if errors.As(err, &apiErr) && apiErr.StatusCode == fasthttp.StatusNotFound {
		c.logger.Debug().Str("player", name).Str("realm", realm).Msg("character not found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character %s-%s: %w", name, realm, err)
	}

	return &domain.PlayerProfile{
		Class:   profile.CharacterClass.Name,
		Spec:    profile.ActiveSpec.Name,
		Race:    profile.Race.Name,
		Faction: profile.Faction.Name,
	}, nil
}

func (c *BlizzardClient) getCharacter(ctx context.Context, realm, name, region string) (*CharacterProfileResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	uri := fmt.Sprintf("%s/profile/wow/character/%s/%s?namespace=profile-%s&locale=en_US",
		fmt.Sprintf(c.apiHost, region),
		url.PathEscape(RealmSlug(realm)),
		url.PathEscape(strings.ToLower(name)),
		region,
	)
	return doRequest[CharacterProfileResponse](ctx, c.client, func(req *fasthttp.Request) {
		req.SetRequestURI(uri)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("Authorization", "Bearer "+token)
	})
}

func (c *BlizzardClient) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token.value != "" && time.Now().Before(c.token.expiresAt) {
		return c.token.value, nil
	}

	resp, err := doRequest[TokenResponse](ctx, c.client, func(req *fasthttp.Request) {
		req.SetRequestURI(c.tokenURL)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.clientID+":"+c.clientSecret)))
		req.SetBodyString("grant_type=client_credentials")
	})
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("failed to get access token: empty token")
	}

	lifetime := time.Duration(resp.ExpiresIn)*time.Second - constants.TokenExpiryLeeway
	c.token = accessToken{
		value:     resp.AccessToken,
		expiresAt: time.Now().Add(lifetime),
	}
	c.logger.Debug().Dur("lifetime", lifetime).Msg("blizzard access token refreshed")
	return c.token.value, nil
}

func (c *BlizzardClient) invalidateToken() {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = accessToken{}
}

func doRequest[T any](ctx context.Context, client *fasthttp.Client, prepare func(req *fasthttp.Request)) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	prepare(req)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.DoTimeout(req, resp, constants.ExternalAPITimeout); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode()}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RealmSlug turns a realm display name into its API slug, e.g.
// "Azjol-Nerub" -> "azjol-nerub", "Kel'Thuzad" -> "kelthuzad".
func RealmSlug(realm string) string {
	s := strings.ToLower(strings.TrimSpace(realm))
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	return strings.Join(strings.Fields(s), "-")
}

// NoopEnricher is used when no API credentials are configured.
type NoopEnricher struct{}

func (NoopEnricher) GetPlayerData(ctx context.Context, realm, name, region string) (*domain.PlayerProfile, error) {
	return nil, nil
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type namedRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CharacterProfileResponse struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Level          int      `json:"level"`
	CharacterClass namedRef `json:"character_class"`
	ActiveSpec     namedRef `json:"active_spec"`
	Race           namedRef `json:"race"`
	Realm          struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"realm"`
	Faction struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"faction"`
}
