package resthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var runOnce sync.Once
var restyClient *resty.Client

// Client resty client
func Client() *resty.Client {
	runOnce.Do(func() {
		restyClient = resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "linkport").
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(200 * time.Millisecond)
	})

	return restyClient
}

// Request new resty request
func Request(ctx context.Context) *resty.Request {
	return Client().R().SetContext(ctx)
}

// ResponseError non 2xx response
type ResponseError struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Msg)
}

// ParseResponse decode a successful body into obj
func ParseResponse(r *resty.Response, obj interface{}) error {
	if !r.IsSuccess() {
		err := &ResponseError{Status: r.StatusCode()}
		var body struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(r.Body(), &body) == nil && body.Msg != "" {
			err.Msg = body.Msg
		} else {
			err.Msg = r.Status()
		}
		return err
	}

	if obj != nil {
		return json.Unmarshal(r.Body(), obj)
	}

	return nil
}
