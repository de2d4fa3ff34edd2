package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest("GET", "/products")

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/products", req.Path)
	assert.NotNil(t, req.Headers)
	assert.Nil(t, req.Body)
	assert.False(t, req.Auth)
}

func TestRequest_Chained(t *testing.T) {
	body := []byte(`{"size":"1"}`)
	req := NewRequest("POST", "/orders").
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetAuth(true)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/orders", req.Path)
	assert.Equal(t, "application/json", req.Headers["Content-Type"])
	assert.Equal(t, body, req.Body)
	assert.True(t, req.Auth)
}

func TestParams_Clone(t *testing.T) {
	params := Params{"id": "BTC-USD", "limit": 100}
	clone := params.Clone()
	clone["limit"] = 5

	assert.Equal(t, 100, params["limit"])
	assert.Equal(t, 5, clone["limit"])

	var nilParams Params
	assert.NotNil(t, nilParams.Clone())
}

func TestParams_Encode(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"empty", Params{}, ""},
		{"nil", nil, ""},
		{"sorted keys", Params{"level": 2, "after": "100"}, "after=100&level=2"},
		{"mixed types", Params{"active": true, "limit": int64(50), "rate": 0.5}, "active=true&limit=50&rate=0.5"},
		{"escaped", Params{"start": "2018-01-01T00:00:00Z"}, "start=2018-01-01T00%3A00%3A00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Encode())
		})
	}
}

func TestMergeParams(t *testing.T) {
	required := Params{"id": "BTC-USD", "level": 2}
	extra := Params{"level": 3, "after": "100"}

	merged := MergeParams(required, extra)

	assert.Equal(t, "BTC-USD", merged["id"])
	assert.Equal(t, 2, merged["level"], "required keys win on collision")
	assert.Equal(t, "100", merged["after"])

	assert.Equal(t, Params{"level": 3, "after": "100"}, extra, "inputs are not mutated")
	assert.Equal(t, Params{"id": "BTC-USD", "level": 2}, required)
}

func TestMergeParams_NilExtra(t *testing.T) {
	merged := MergeParams(Params{"id": "ETH-USD"}, nil)
	assert.Equal(t, Params{"id": "ETH-USD"}, merged)
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		params        Params
		wantPath      string
		wantRemaining Params
	}{
		{
			name:          "single placeholder",
			path:          "/products/{id}/ticker",
			params:        Params{"id": "BTC-USD"},
			wantPath:      "/products/BTC-USD/ticker",
			wantRemaining: Params{},
		},
		{
			name:          "placeholder consumed, extras remain",
			path:          "/products/{id}/candles",
			params:        Params{"id": "ETH-USD", "granularity": 300},
			wantPath:      "/products/ETH-USD/candles",
			wantRemaining: Params{"granularity": 300},
		},
		{
			name:          "no placeholders",
			path:          "/accounts",
			params:        Params{"limit": 10},
			wantPath:      "/accounts",
			wantRemaining: Params{"limit": 10},
		},
		{
			name:          "unmatched placeholder stays",
			path:          "/orders/{id}",
			params:        Params{},
			wantPath:      "/orders/{id}",
			wantRemaining: Params{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPath, gotRemaining := ExpandPath(tt.path, tt.params)
			assert.Equal(t, tt.wantPath, gotPath)
			assert.Equal(t, tt.wantRemaining, gotRemaining)
		})
	}
}

func TestFormatParam(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "BTC-USD", "BTC-USD"},
		{"int", 42, "42"},
		{"int64", int64(9000), "9000"},
		{"float", 0.003, "0.003"},
		{"bool", true, "true"},
		{"named string", SideBuy, "buy"},
		{"stringer", OpFetchTicker, "FETCH_TICKER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatParam(tt.value))
		})
	}
}
