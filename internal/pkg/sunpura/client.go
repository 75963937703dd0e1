package sunpura

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

const defaultBaseURL = "https://server-nj.ai-ec.cloud:8443"

const (
	resultOK           = 0
	resultTokenExpired = 10000
)

var ErrLoginFailed = errors.New("sunpura: login failed")

// apiError carries a non-zero cloud result code.
type apiError struct {
	Result int
	Msg    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("sunpura: result %d: %s", e.Result, e.Msg)
}

// Client talks to the Sunpura cloud. The password travels as its md5 hex
// digest, the session token rides in the "token" header. When the token
// expires (result code 10000, or a jwt exp in the past) the client re-logs-in
// and retries the request once.
type Client struct {
	httpc   *http.Client
	baseURL string
	email   string
	md5Pass string
	logger  *zap.Logger

	mu    sync.Mutex
	token string
}

type Option func(*Client)

// WithBaseURL points the client at a different server, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func NewClient(email, password string, opts ...Option) *Client {
	sum := md5.Sum([]byte(password))
	c := &Client{
		httpc:   &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
		email:   email,
		md5Pass: hex.EncodeToString(sum[:]),
		logger:  zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Result int             `json:"result"`
	Msg    string          `json:"msg"`
	Obj    json.RawMessage `json:"obj"`
}

// Login obtains a fresh session token.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{
		"email":      c.email,
		"password":   c.md5Pass,
		"phoneOs":    1,
		"phoneModel": "1.1",
		"appVersion": "V1.1",
	})
	if err != nil {
		return err
	}
	env, err := c.roundTrip(ctx, http.MethodPost, "/user/login", nil, body, "")
	if err != nil {
		return err
	}
	if env.Result != resultOK {
		return fmt.Errorf("%w: %s", ErrLoginFailed, env.Msg)
	}
	obj := struct {
		Token string `json:"token"`
	}{}
	if err := json.Unmarshal(env.Obj, &obj); err != nil {
		return fmt.Errorf("sunpura: login response: %w", err)
	}
	c.mu.Lock()
	c.token = obj.Token
	c.mu.Unlock()
	c.logger.Debug("logged in to sunpura cloud")
	return nil
}

// currentToken returns the stored token, or "" when it is missing or its jwt
// exp claim has passed. An unparsable token is returned as-is; the 10000
// result code handles expiry reactively in that case.
func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		return c.token
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return c.token
	}
	if time.Now().After(exp.Time) {
		return ""
	}
	return c.token
}

// call performs an authenticated request, logging in first when no valid
// token is held and retrying once when the server reports token expiry.
func (c *Client) call(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	token := c.currentToken()
	if token == "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
		token = c.currentToken()
	}

	env, err := c.roundTrip(ctx, method, path, params, body, token)
	if err != nil {
		return err
	}
	if env.Result == resultTokenExpired {
		if err := c.Login(ctx); err != nil {
			return err
		}
		if env, err = c.roundTrip(ctx, method, path, params, body, c.currentToken()); err != nil {
			return err
		}
	}
	if env.Result != resultOK {
		return &apiError{Result: env.Result, Msg: env.Msg}
	}
	if out != nil && len(env.Obj) > 0 {
		if err := json.Unmarshal(env.Obj, out); err != nil {
			return fmt.Errorf("sunpura: %s: decode obj: %w", path, err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, params url.Values, body []byte, token string) (*envelope, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("projectType", "1")
	if token != "" {
		req.Header.Set("token", token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sunpura: %s: status %d: %s", path, resp.StatusCode, data)
	}

	env := &envelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return nil, fmt.Errorf("sunpura: %s: decode: %w", path, err)
	}
	return env, nil
}

// Plant is one site registered to the account.
type Plant struct {
	ID   int64  `json:"id"`
	Name string `json:"plantName"`
}

func (c *Client) PlantList(ctx context.Context) ([]Plant, error) {
	plants := []Plant{}
	if err := c.call(ctx, http.MethodGet, "/plant/getPlantVos", nil, nil, &plants); err != nil {
		return nil, err
	}
	return plants, nil
}

// MainControlDevice returns the datalog serial of the plant's main control
// unit, the identity every schedule write targets.
func (c *Client) MainControlDevice(ctx context.Context, plantID int64) (string, error) {
	devices := []struct {
		DatalogSn string `json:"datalogSn"`
	}{}
	path := "/energy/getHomeControlSn/" + strconv.FormatInt(plantID, 10)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &devices); err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", errors.New("sunpura: plant has no main control device")
	}
	return devices[0].DatalogSn, nil
}

// HomeCount is the live energy flow snapshot.
type HomeCount struct {
	SystemSn   string             `json:"systemSn"`
	SolarPower float64            `json:"solarPower"`
	GridPower  float64            `json:"gridPower"`
	BatPower   float64            `json:"batPower"`
	HomePower  float64            `json:"homePower"`
	LoadPower  float64            `json:"loadPower"`
	BatSoc     float64            `json:"batSoc"`
	PVPowerMap map[string]float64 `json:"pvPowerMap"`
	BatDataMap map[string]any     `json:"batDataMap"`
}

func (c *Client) HomeCountData(ctx context.Context, plantID int64, deviceSn string) (*HomeCount, error) {
	params := url.Values{}
	params.Set("plantId", strconv.FormatInt(plantID, 10))
	params.Set("deviceSn", deviceSn)
	out := &HomeCount{}
	if err := c.call(ctx, http.MethodPost, "/energy/getHomeCountData", params, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleRecord fetches the device's writable configuration for the given
// energy mode.
func (c *Client) ScheduleRecord(ctx context.Context, datalogSn string, energyMode int) (model.ScheduleRecord, error) {
	params := url.Values{}
	params.Set("datalogSn", datalogSn)
	params.Set("energyMode", strconv.Itoa(energyMode))
	record := model.ScheduleRecord{}
	if err := c.call(ctx, http.MethodPost, "/aiSystem/getAiSystemBySnWithEnergyMode", params, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// WriteScheduleRecord writes a full merged record back. The record must have
// passed through MergeSchedule; partial writes corrupt the slot table.
func (c *Client) WriteScheduleRecord(ctx context.Context, record model.ScheduleRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodPost, "/aiSystem/setAiSystemTimesWithEnergyMode", nil, body, nil)
}
