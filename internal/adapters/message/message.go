// Package message reads raw RFC 822 messages into email records
package message

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"golang.org/x/net/html"

	"github.com/mikey/phishlens/internal/core"
)

const maxDepth = 5

var decoder = new(mime.WordDecoder)

// Parse reads a raw message. The body is the text/plain content; an HTML-only
// message is reduced to its text.
func Parse(r io.Reader) (core.EmailRecord, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return core.EmailRecord{}, fmt.Errorf("failed to parse email: %w", err)
	}

	body, err := extractText(msg.Header.Get("Content-Type"), msg.Body, 0)
	if err != nil {
		return core.EmailRecord{}, fmt.Errorf("failed to read email body: %w", err)
	}

	return core.EmailRecord{
		Sender:  decodeHeader(msg.Header.Get("From")),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    strings.TrimSpace(body),
	}, nil
}

func decodeHeader(value string) string {
	if decoded, err := decoder.DecodeHeader(value); err == nil {
		return decoded
	}
	return value
}

// extractText returns the readable text of a body with the given content type
func extractText(contentType string, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || contentType == "" {
		mediaType = "text/plain"
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary, ok := params["boundary"]
		if !ok || depth >= maxDepth {
			return readAll(body)
		}
		return extractMultipart(multipart.NewReader(body, boundary), depth)
	case mediaType == "text/html":
		return htmlText(body)
	default:
		return readAll(body)
	}
}

// extractMultipart prefers text/plain parts and falls back to HTML ones.
// Attachments are skipped.
func extractMultipart(mr *multipart.Reader, depth int) (string, error) {
	var plain, fromHTML bytes.Buffer

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if plain.Len() > 0 || fromHTML.Len() > 0 {
				break
			}
			return "", err
		}
		if part.FileName() != "" {
			continue
		}

		partType := part.Header.Get("Content-Type")
		mediaType, _, _ := mime.ParseMediaType(partType)
		if partType == "" {
			mediaType = "text/plain"
		}

		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			text, err := extractText(partType, part, depth+1)
			if err == nil && text != "" {
				plain.WriteString(text)
				plain.WriteString("\n")
			}
		case mediaType == "text/plain":
			text, err := readAll(part)
			if err == nil {
				plain.WriteString(text)
				plain.WriteString("\n")
			}
		case mediaType == "text/html":
			text, err := htmlText(part)
			if err == nil {
				fromHTML.WriteString(text)
				fromHTML.WriteString("\n")
			}
		}
	}

	if plain.Len() > 0 {
		return plain.String(), nil
	}
	return fromHTML.String(), nil
}

// htmlText keeps the text nodes of an HTML body, skipping scripts and styles
func htmlText(r io.Reader) (string, error) {
	var b strings.Builder
	z := html.NewTokenizer(r)
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.Join(strings.Fields(b.String()), " "), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			if name, _ := z.TagName(); isSkipped(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isSkipped(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteString(" ")
			}
		}
	}
}

func isSkipped(tag string) bool {
	return tag == "script" || tag == "style" || tag == "head"
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
