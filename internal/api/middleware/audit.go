package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/pokedex/backend/internal/models"
)

const unknownValue = "unknown"

// AuditRecorder accepts audit entries without blocking.
type AuditRecorder interface {
	Record(entry models.AuditLog) bool
}

// Audit records the outcome of every POST, PUT and DELETE once the handler
// chain has written its response. Other methods pass through untouched.
func Audit(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		action, ok := models.AuditActionForMethod(c.Request.Method)
		if !ok {
			c.Next()
			return
		}

		subject := c.Param("name")
		if subject == "" {
			subject = subjectFromBody(c)
		}
		ip := SourceIP(c)

		c.Next()

		recorder.Record(models.AuditLog{
			Action:      action,
			PokemonName: subject,
			SourceIP:    ip,
			StatusCode:  c.Writer.Status(),
		})
	}
}

// subjectFromBody reads the request body, puts it back for the handler and
// picks name, then name.english, then name.french.
func subjectFromBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return unknownValue
	}
	body, err := io.ReadAll(c.Request.Body)
	_ = c.Request.Body.Close()
	if err != nil {
		// The handler sees the same read error, e.g. the body limit.
		c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), failedReader{err}))
		return unknownValue
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) == 0 {
		return unknownValue
	}

	var payload struct {
		Name json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Name) == 0 {
		return unknownValue
	}

	var plain string
	if err := json.Unmarshal(payload.Name, &plain); err == nil && plain != "" {
		return plain
	}
	var locales struct {
		English string `json:"english"`
		French  string `json:"french"`
	}
	if err := json.Unmarshal(payload.Name, &locales); err == nil {
		if locales.English != "" {
			return locales.English
		}
		if locales.French != "" {
			return locales.French
		}
	}
	return unknownValue
}

type failedReader struct{ err error }

func (r failedReader) Read([]byte) (int, error) { return 0, r.err }

// SourceIP returns the first X-Forwarded-For entry, else the host of the
// connection's remote address.
func SourceIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(c.Request.RemoteAddr)
	if addr == "" {
		return unknownValue
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		if host == "" {
			return unknownValue
		}
		return host
	}
	return addr
}
