package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxPlainDetail = 200

// Error is a failed backend call. Detail carries the server message when one
// could be extracted.
type Error struct {
	Method string
	Path   string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": %d %s", e.Status, http.StatusText(e.Status))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a 404 response.
func (e *Error) NotFound() bool { return e.Status == http.StatusNotFound }

// UserMessage is the server-provided message, if any.
func (e *Error) UserMessage() string { return e.Detail }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

// Message returns the server message of err or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// parseDetail extracts a human-readable message from an error body: the
// FastAPI "detail" field, the text of an HTML error page, or short plain text.
func parseDetail(contentType string, body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	if detail, ok := jsonDetail(body); ok {
		return detail
	}

	if strings.Contains(contentType, "html") || bytes.HasPrefix(body, []byte("<")) {
		return htmlDetail(body)
	}

	text := string(body)
	if len(text) > maxPlainDetail {
		return ""
	}
	return text
}

func jsonDetail(body []byte) (string, bool) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return "", false
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text, true
	}

	// validation errors: [{"loc": [...], "msg": "...", "type": "..."}]
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg == "" {
				continue
			}
			if field := lastLoc(item.Loc); field != "" {
				msgs = append(msgs, field+": "+item.Msg)
			} else {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; "), true
	}
	return "", false
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}

func htmlDetail(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, sel := range []string{"h1", "title", "body"} {
		text := strings.Join(strings.Fields(doc.Find(sel).First().Text()), " ")
		if text != "" {
			return text
		}
	}
	return ""
}
