package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// catalogResponse mirrors the catalogd /api response model.
type catalogResponse struct {
	Brands      []string `json:"brands"`
	ProductList []struct {
		Price string `json:"price"`
		Title string `json:"title"`
		Image string `json:"image"`
		Brand string `json:"brand"`
		Sizes string `json:"sizes"`
	} `json:"productList"`
}

// errorResponse mirrors the catalogd error body.
type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("CATALOG_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3001"
	}

	s := server.NewMCPServer(
		"catalog",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	getCatalogTool := mcp.NewTool("get_catalog",
		mcp.WithDescription("Crawl the product catalog and return every product (price, title, image, brand, sizes) with the distinct brand list. A full crawl walks every listing page with a headless browser and can take several minutes."),
		mcp.WithString("category",
			mcp.Description("Crawl a single category (e.g. 'men' or 'women'). Omit to crawl the default category set."),
		),
	)
	s.AddTool(getCatalogTool, handleGetCatalog(apiURL))

	listBrandsTool := mcp.NewTool("list_brands",
		mcp.WithDescription("Crawl the product catalog and return only the distinct brand names, in first-seen order."),
		mcp.WithString("category",
			mcp.Description("Crawl a single category (e.g. 'men' or 'women'). Omit to crawl the default category set."),
		),
	)
	s.AddTool(listBrandsTool, handleListBrands(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// catalogPath returns the API path for an optional category.
func catalogPath(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return "/api"
	}
	return "/api/" + url.PathEscape(category)
}

// fetchCatalog calls the catalogd API and decodes the aggregate. Error
// bodies are turned into Go errors carrying the API error code.
func fetchCatalog(ctx context.Context, client *http.Client, apiURL, path string) (*catalogResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(apiURL, "/")+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return nil, fmt.Errorf("catalog request failed (%s): %s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("catalog request failed: HTTP %d", resp.StatusCode)
	}

	var catalog catalogResponse
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &catalog, nil
}

func handleGetCatalog(apiURL string) server.ToolHandlerFunc {
	// A full crawl is bounded server-side by the request timeout (10m).
	client := &http.Client{Timeout: 11 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		catalog, err := fetchCatalog(ctx, client, apiURL, catalogPath(request.GetString("category", "")))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		out, err := json.MarshalIndent(catalog, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%d products, %d brands\n\n%s",
			len(catalog.ProductList), len(catalog.Brands), out)), nil
	}
}

func handleListBrands(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 11 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		catalog, err := fetchCatalog(ctx, client, apiURL, catalogPath(request.GetString("category", "")))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(catalog.Brands) == 0 {
			return mcp.NewToolResultText("No brands found."), nil
		}
		return mcp.NewToolResultText(strings.Join(catalog.Brands, "\n")), nil
	}
}
