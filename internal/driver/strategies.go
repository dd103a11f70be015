// File: internal/driver/strategies.go
// Description: One interaction strategy per field type. The index-to-key
// mapping encodes the target form UI's current keyboard behavior; keeping each
// mapping inside its own strategy lets it be swapped without touching the
// traversal in driver.go.
package driver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/config"
	"github.com/xkilldash9x/autoform/internal/formschema"
)

// fallbackAnswer is typed into free-text fields that got no synthesized value.
const fallbackAnswer = "N/A"

// Strategy fills a single field through the Surface.
type Strategy interface {
	Fill(ctx context.Context, s Surface, field formschema.Field, answer any) error
}

// Registry maps field types to their interaction strategy.
type Registry map[formschema.FieldType]Strategy

// NewRegistry wires the default per-type strategies.
func NewRegistry(cfg config.DriverConfig, logger *zap.Logger) Registry {
	text := &textStrategy{}
	choice := &choiceStrategy{}
	upload := &uploadStrategy{
		placeholder: cfg.PlaceholderFile,
		wait:        cfg.UploadWait,
		httpClient:  &http.Client{},
		logger:      logger.Named("upload"),
	}

	return Registry{
		formschema.TypeShortText:      text,
		formschema.TypeLongText:       text,
		formschema.TypeText:           text,
		formschema.TypeEmail:          text,
		formschema.TypeNumber:         text,
		formschema.TypeWebsite:        text,
		formschema.TypeMultipleChoice: choice,
		formschema.TypePictureChoice:  choice,
		formschema.TypeCheckboxes:     choice,
		formschema.TypeDropdown:       &dropdownStrategy{},
		formschema.TypeFileUpload:     upload,
	}
}

// stringify renders an answer value the way it should be typed. JSON numbers
// arrive as float64; whole values must not grow a decimal point.
func stringify(answer any) string {
	switch v := answer.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// -- textStrategy --
// Free-text, email, number and website fields: type the answer, advance.
type textStrategy struct{}

func (t *textStrategy) Fill(ctx context.Context, s Surface, _ formschema.Field, answer any) error {
	value := fallbackAnswer
	if answer != nil {
		if str := stringify(answer); str != "" {
			value = str
		}
	}
	if err := s.TypeText(ctx, value); err != nil {
		return err
	}
	return s.Advance(ctx)
}

// -- choiceStrategy --
// Multiple choice, picture choice and checkboxes: each comma-separated token
// becomes one key press. Numeric tokens are zero-based option indexes mapped
// onto the option hotkeys (0 -> a, 1 -> b, ...); anything else is pressed as
// a raw key.
type choiceStrategy struct{}

func (c *choiceStrategy) Fill(ctx context.Context, s Surface, _ formschema.Field, answer any) error {
	if answer != nil {
		tokens := strings.Split(strings.ReplaceAll(stringify(answer), " ", ""), ",")
		for _, token := range tokens {
			key := strings.ToLower(token)
			if key == "" {
				continue
			}
			if idx, err := strconv.Atoi(key); err == nil && idx >= 0 {
				key = string(rune('a' + idx))
			}
			if err := s.PressKey(ctx, key); err != nil {
				return err
			}
			if err := s.Pause(ctx, 200*time.Millisecond, 400*time.Millisecond); err != nil {
				return err
			}
		}
	}
	return s.Advance(ctx)
}

// -- dropdownStrategy --
// Tab into the control, advance to open the list, then move down answer-many
// positions. The answer is a one-based index, defaulting to 1 when it does
// not parse. This one-based convention intentionally differs from the
// zero-based choice indexes.
type dropdownStrategy struct{}

func (d *dropdownStrategy) Fill(ctx context.Context, s Surface, _ formschema.Field, answer any) error {
	if err := s.PressKey(ctx, "Tab"); err != nil {
		return err
	}
	if err := s.Pause(ctx, time.Second, 2*time.Second); err != nil {
		return err
	}
	if err := s.Advance(ctx); err != nil {
		return err
	}

	if answer != nil {
		index := 1
		if parsed, err := strconv.Atoi(strings.TrimSpace(stringify(answer))); err == nil {
			index = parsed
		}
		for i := 0; i < index; i++ {
			if err := s.MoveDown(ctx); err != nil {
				return err
			}
			if err := s.Pause(ctx, 200*time.Millisecond, 400*time.Millisecond); err != nil {
				return err
			}
		}
	}
	return s.Advance(ctx)
}

// -- uploadStrategy --
// File uploads attach either the configured placeholder file or, when the
// answer is a URL, its downloaded content. Temp files are intentionally left
// behind; the process is short-lived.
type uploadStrategy struct {
	placeholder string
	wait        time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
}

func (u *uploadStrategy) Fill(ctx context.Context, s Surface, field formschema.Field, answer any) error {
	path := u.placeholder
	if str, ok := answer.(string); ok && strings.HasPrefix(str, "http") {
		downloaded, err := u.download(ctx, str)
		if err != nil {
			return fmt.Errorf("failed to download upload target: %w", err)
		}
		path = downloaded
	}

	if err := s.AttachFile(ctx, path); err != nil {
		return fmt.Errorf("failed to attach file %q: %w", path, err)
	}
	u.logger.Info("Uploaded file", zap.String("ref", field.Ref), zap.String("path", path))

	if err := s.Pause(ctx, u.wait, u.wait); err != nil {
		return err
	}
	return s.Advance(ctx)
}

func (u *uploadStrategy) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "autoform-upload-*")
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

// -- skipStrategy --
// Unknown field types are skipped by advancing only.
type skipStrategy struct {
	logger *zap.Logger
}

func (k *skipStrategy) Fill(ctx context.Context, s Surface, field formschema.Field, _ any) error {
	k.logger.Warn("Unknown field type, skipping",
		zap.String("ref", field.Ref),
		zap.String("type", string(field.Type)),
	)
	return s.Advance(ctx)
}
