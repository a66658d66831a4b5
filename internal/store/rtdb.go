package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/studyclock/internal/model"
)

const (
	rtdbTimeout        = 15 * time.Second
	rtdbMaxIncrements  = 5
	rtdbETagHeader     = "X-Firebase-ETag"
	rtdbIfMatchHeader  = "if-match"
	rtdbRecordsSegment = "studyTime"
)

// RTDBStore keeps daily records in a Realtime Database through its REST API,
// under users/<user>/studyTime/<date>.
type RTDBStore struct {
	base   *url.URL
	auth   string
	client *http.Client
}

// OpenRTDB returns a REST-backed store. A nil client gets a default one with a
// request timeout.
func OpenRTDB(baseURL, auth string, client *http.Client) (*RTDBStore, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("rtdb url is empty")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid rtdb url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("invalid rtdb url %q: scheme must be http or https", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: rtdbTimeout}
	}
	return &RTDBStore{base: u, auth: auth, client: client}, nil
}

// Close releases idle connections.
func (s *RTDBStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Get returns the record for the day, or zeros when none exists.
func (s *RTDBStore) Get(ctx context.Context, userID, date string) (model.DailyRecord, error) {
	if err := validateKey(userID, date); err != nil {
		return model.DailyRecord{}, err
	}
	body, _, err := s.do(ctx, http.MethodGet, s.recordURL(userID, date, nil), nil, nil)
	if err != nil {
		return model.DailyRecord{}, err
	}
	return decodeRecord(body)
}

// Set overwrites the record for the day.
func (s *RTDBStore) Set(ctx context.Context, userID, date string, rec model.DailyRecord) error {
	if err := validateKey(userID, date); err != nil {
		return err
	}
	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, _, err = s.do(ctx, http.MethodPut, s.recordURL(userID, date, nil), payload, nil)
	return err
}

// Increment adds the delta with an ETag conditional write, retrying when
// another writer got there first.
func (s *RTDBStore) Increment(ctx context.Context, userID, date string, delta model.Delta) error {
	if err := validateKey(userID, date); err != nil {
		return err
	}
	if delta.Empty() {
		return nil
	}
	target := s.recordURL(userID, date, nil)
	for attempt := 0; attempt < rtdbMaxIncrements; attempt++ {
		body, header, err := s.do(ctx, http.MethodGet, target, nil, map[string]string{rtdbETagHeader: "true"})
		if err != nil {
			return err
		}
		etag := header.Get("ETag")
		if etag == "" {
			return fmt.Errorf("rtdb response is missing an ETag")
		}
		current, err := decodeRecord(body)
		if err != nil {
			return err
		}
		payload, err := encodeRecord(current.Add(delta))
		if err != nil {
			return err
		}
		_, _, err = s.do(ctx, http.MethodPut, target, payload, map[string]string{rtdbIfMatchHeader: etag})
		if err == nil {
			return nil
		}
		if !isPreconditionFailed(err) {
			return err
		}
	}
	return fmt.Errorf("increment %s: %w", date, ErrConflict)
}

// Delete removes the record for the day.
func (s *RTDBStore) Delete(ctx context.Context, userID, date string) error {
	if err := validateKey(userID, date); err != nil {
		return err
	}
	_, _, err := s.do(ctx, http.MethodDelete, s.recordURL(userID, date, nil), nil, nil)
	return err
}

// List returns the records between from and to inclusive, ordered by date.
func (s *RTDBStore) List(ctx context.Context, userID, from, to string) ([]model.DatedRecord, error) {
	if err := validateKey(userID, from); err != nil {
		return nil, err
	}
	if err := validateKey(userID, to); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("orderBy", strconv.Quote("$key"))
	query.Set("startAt", strconv.Quote(from))
	query.Set("endAt", strconv.Quote(to))
	body, _, err := s.do(ctx, http.MethodGet, s.collectionURL(userID, query), nil, nil)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	dates := make([]string, 0, len(raw))
	for date := range raw {
		if date < from || date > to {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	result := make([]model.DatedRecord, 0, len(dates))
	for _, date := range dates {
		rec, err := decodeRecord(raw[date])
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", date, err)
		}
		result = append(result, model.DatedRecord{Date: date, Record: rec})
	}
	return result, nil
}

func (s *RTDBStore) recordURL(userID, date string, query url.Values) string {
	return s.buildURL([]string{"users", userID, rtdbRecordsSegment, date}, query)
}

func (s *RTDBStore) collectionURL(userID string, query url.Values) string {
	return s.buildURL([]string{"users", userID, rtdbRecordsSegment}, query)
}

func (s *RTDBStore) buildURL(segments []string, query url.Values) string {
	u := *s.base
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	baseRaw := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(segments, "/") + ".json"
	u.RawPath = baseRaw + "/" + strings.Join(escaped, "/") + ".json"
	if query == nil {
		query = url.Values{}
	}
	if s.auth != "" {
		query.Set("auth", s.auth)
	}
	u.RawQuery = query.Encode()
	return u.String()
}

type statusError struct {
	method string
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("rtdb %s: unexpected status %d", e.method, e.status)
	}
	return fmt.Sprintf("rtdb %s: unexpected status %d: %s", e.method, e.status, e.body)
}

func isPreconditionFailed(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusPreconditionFailed
}

func (s *RTDBStore) do(ctx context.Context, method, target string, payload []byte, headers map[string]string) ([]byte, http.Header, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, redactURLError(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("rtdb %s: %w", method, redactURLError(err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("rtdb %s: failed to read response: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.Header, &statusError{method: method, status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}
	return data, resp.Header, nil
}

// redactURLError masks the auth query parameter in errors that carry the
// request URL.
func redactURLError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	redacted := ""
	if u, perr := url.Parse(uerr.URL); perr == nil {
		q := u.Query()
		if q.Has("auth") {
			q.Set("auth", "REDACTED")
			u.RawQuery = q.Encode()
		}
		redacted = u.String()
	}
	return &url.Error{Op: uerr.Op, URL: redacted, Err: uerr.Err}
}
