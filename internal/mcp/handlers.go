package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// handleSearchNearby runs a nearby search around the given coordinate.
func (s *Server) handleSearchNearby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	center, errResult := requirePoint(request)
	if errResult != nil {
		return errResult, nil
	}

	radius := request.GetFloat("radius", s.defaults.Radius)
	if radius <= 0 {
		radius = geo.MaxRadiusMeters
	}
	limit := request.GetInt("limit", s.defaults.Limit)

	results, err := s.wiki.SearchNearby(ctx, center.Lat, center.Lon, radius, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No articles found within %dm of %s.", geo.ClampRadius(radius), center)), nil
	}

	return mcp.NewToolResultText(formatArticles(results)), nil
}

// handleGetArticleSummary fetches one article summary.
func (s *Server) handleGetArticleSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil || strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}

	summary, err := s.wiki.FetchSummary(ctx, title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load %q: %v", title, err)), nil
	}

	return mcp.NewToolResultText(formatSummary(summary)), nil
}

// handleGetOSMEditLink builds an OpenStreetMap editor link.
func (s *Server) handleGetOSMEditLink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	center, errResult := requirePoint(request)
	if errResult != nil {
		return errResult, nil
	}
	zoom := request.GetInt("zoom", s.defaults.Zoom)
	if zoom < 0 || zoom > 19 {
		return mcp.NewToolResultError("zoom must be between 0 and 19"), nil
	}
	return mcp.NewToolResultText(geo.OSMEditURL(zoom, center)), nil
}

func requirePoint(request mcp.CallToolRequest) (geo.Point, *mcp.CallToolResult) {
	lat, err := request.RequireFloat("lat")
	if err != nil {
		return geo.Point{}, mcp.NewToolResultError("missing required parameter: lat")
	}
	lon, err := request.RequireFloat("lon")
	if err != nil {
		return geo.Point{}, mcp.NewToolResultError("missing required parameter: lon")
	}
	p := geo.Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return geo.Point{}, mcp.NewToolResultError(fmt.Sprintf("coordinate %s is out of range", p))
	}
	return p, nil
}

// formatArticles renders search results as text for agent consumption.
func formatArticles(results []wiki.ArticleSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d article(s):\n", len(results)))

	for i, a := range results {
		sb.WriteString(fmt.Sprintf("\n--- %d. %s ---\n", i+1, a.Title))
		sb.WriteString(fmt.Sprintf("Position: %.5f, %.5f\n", a.Position.Lat, a.Position.Lon))
		sb.WriteString(fmt.Sprintf("Distance: %.0fm\n", a.Distance))
		if a.CanonicalPageURL != "" {
			sb.WriteString(fmt.Sprintf("URL: %s\n", a.CanonicalPageURL))
		}
		if a.Extract != "" {
			sb.WriteString("\n")
			sb.WriteString(a.Extract)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func formatSummary(s *wiki.Summary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n", s.Title))
	if s.Position != nil {
		sb.WriteString(fmt.Sprintf("Position: %.5f, %.5f\n", s.Position.Lat, s.Position.Lon))
	}
	if s.CanonicalPageURL != "" {
		sb.WriteString(fmt.Sprintf("URL: %s\n", s.CanonicalPageURL))
	}
	if s.ThumbnailURL != "" {
		sb.WriteString(fmt.Sprintf("Thumbnail: %s\n", s.ThumbnailURL))
	}
	sb.WriteString("\n")
	sb.WriteString(s.Extract)
	sb.WriteString("\n")
	return sb.String()
}
