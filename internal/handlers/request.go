package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/storage"
)

// form is a request body that may arrive as JSON or as multipart form data.
// Numbers in JSON keep their literal text (json.Number).
type form struct {
	values map[string]any
	files  map[string][]storage.File
}

func readForm(c *fiber.Ctx) (*form, error) {
	f := &form{values: map[string]any{}, files: map[string][]storage.File{}}

	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	switch {
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		mf, err := c.MultipartForm()
		if err != nil {
			return nil, apperr.New(apperr.CodeValidation, "Invalid multipart body")
		}
		for k, vs := range mf.Value {
			if len(vs) == 1 {
				f.values[k] = vs[0]
				continue
			}
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			f.values[k] = list
		}
		for k, fhs := range mf.File {
			for _, fh := range fhs {
				f.files[k] = append(f.files[k], storage.FromMultipart(fh))
			}
		}

	case strings.HasPrefix(ct, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			f.values[string(k)] = string(v)
		})

	default:
		body := bytes.TrimSpace(c.Body())
		if len(body) == 0 {
			return f, nil
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&f.values); err != nil || f.values == nil {
			return nil, apperr.New(apperr.CodeValidation, "Invalid request body")
		}
	}
	return f, nil
}

// String returns the field as text. Missing or structured values are "".
func (f *form) String(key string) string {
	switch v := f.values[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Strings accepts a single value or a list.
func (f *form) Strings(key string) []string {
	switch v := f.values[key].(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := f.String(key); s != "" {
			return []string{s}
		}
		return nil
	}
}

func (f *form) Files(key string) []storage.File {
	return f.files[key]
}

func (f *form) File(key string) *storage.File {
	if fs := f.files[key]; len(fs) > 0 {
		return &fs[0]
	}
	return nil
}
