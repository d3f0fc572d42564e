package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/contentstream-backend/internal/pkg/ctxutil"
)

// Selection flags mirrored as headers so clients and proxies can branch
// without decoding the body.
const (
	HeaderWraparound = "X-Dedup-Wraparound"
	HeaderDegraded   = "X-Dedup-Degraded"
	HeaderTruncated  = "X-Dedup-Truncated"
	HeaderPoolSize   = "X-Dedup-Pool-Size"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// SelectionFlags describes how a selection response was assembled.
type SelectionFlags struct {
	Wraparound bool
	Degraded   bool
	Truncated  bool
	PoolSize   int64
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	apiErr := APIError{Message: msg, Code: code}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		apiErr.RequestID = td.RequestID
	}
	c.JSON(status, ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondSelection writes a selection payload with its flags echoed as headers.
func RespondSelection(c *gin.Context, flags SelectionFlags, payload any) {
	h := c.Writer.Header()
	h.Set(HeaderWraparound, strconv.FormatBool(flags.Wraparound))
	h.Set(HeaderDegraded, strconv.FormatBool(flags.Degraded))
	h.Set(HeaderTruncated, strconv.FormatBool(flags.Truncated))
	h.Set(HeaderPoolSize, strconv.FormatInt(flags.PoolSize, 10))
	RespondOK(c, payload)
}
