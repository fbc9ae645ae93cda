//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"
)

// These tests drive a running server, e.g.
//
//	go run ./cmd/hampers-storefront &
//	go test -tags integration ./test/integration

func baseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func waitReady(t testing.TB) {
	t.Helper()
	url := fmt.Sprintf("%s/healthz", baseURL())
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("service not ready")
}

// browser keeps the session cookie and does not follow redirects.
func browser(t testing.TB) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type product struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

type cart struct {
	Lines []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"lines"`
	ItemCount int  `json:"item_count"`
	Open      bool `json:"open"`
}

// firstProduct skips the test when the server has no catalog yet.
func firstProduct(t testing.TB) product {
	t.Helper()
	resp, err := http.Get(baseURL() + "/api/products")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Products []product `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Products) == 0 {
		t.Skip("catalog is empty")
	}
	return body.Products[0]
}

func postJSON(t testing.TB, c *http.Client, method, path, body string) *http.Response {
	t.Helper()
	r, err := http.NewRequest(method, baseURL()+path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func fetchCart(c *http.Client) (cart, error) {
	var out cart
	resp, err := c.Get(baseURL() + "/api/cart")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

func getCart(t testing.TB, c *http.Client) cart {
	t.Helper()
	out, err := fetchCart(c)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestIntegration_OpenAPIServed(t *testing.T) {
	waitReady(t)
	resp, err := http.Get(baseURL() + "/openapi.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestIntegration_DocsServed(t *testing.T) {
	waitReady(t)
	resp, err := http.Get(baseURL() + "/docs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	buf := make([]byte, 1024)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "swagger-ui") {
		t.Fatalf("expected swagger-ui in docs page")
	}
}

func TestIntegration_AddRemoveCheckout(t *testing.T) {
	waitReady(t)
	p := firstProduct(t)
	c := browser(t)

	for i := 0; i < 3; i++ {
		resp, err := c.PostForm(baseURL()+"/cart/add", url.Values{"product_id": {p.ID}})
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", resp.StatusCode)
		}
	}
	got := getCart(t, c)
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 3 || !got.Open {
		t.Fatalf("unexpected cart: %+v", got)
	}

	resp, err := c.PostForm(baseURL()+"/checkout", url.Values{"name": {"Integration"}, "address": {"Jl. Uji 1"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	text := loc.Query().Get("text")
	if !strings.Contains(text, fmt.Sprintf("%s (3x)", p.Name)) || !strings.Contains(text, "Alamat: Jl. Uji 1") {
		t.Fatalf("unexpected message: %q", text)
	}

	r, _ := http.NewRequest(http.MethodDelete, baseURL()+"/api/cart/items/"+url.PathEscape(p.ID), nil)
	resp, err = c.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := getCart(t, c); got.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestIntegration_NavigationRoundTrip(t *testing.T) {
	waitReady(t)
	c := browser(t)
	for _, page := range []string{"about", "catalog"} {
		resp := postJSON(t, c, http.MethodPut, "/api/nav", fmt.Sprintf(`{"page":%q}`, page))
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	}
	resp, err := c.Get(baseURL() + "/api/nav")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Page string `json:"page"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Page != "catalog" {
		t.Fatalf("expected catalog, got %q", body.Page)
	}
}
