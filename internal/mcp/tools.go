package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchNearbyTool defines the search_nearby MCP tool.
var searchNearbyTool = mcp.NewTool("search_nearby",
	mcp.WithDescription("Find Wikipedia articles about places near a coordinate, nearest first, with a short extract for each."),
	mcp.WithNumber("lat",
		mcp.Required(),
		mcp.Description("Latitude in decimal degrees"),
	),
	mcp.WithNumber("lon",
		mcp.Required(),
		mcp.Description("Longitude in decimal degrees"),
	),
	mcp.WithNumber("radius",
		mcp.Description("Search radius in meters, clamped to 10-10000"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of articles to return"),
	),
)

// getArticleSummaryTool defines the get_article_summary MCP tool.
var getArticleSummaryTool = mcp.NewTool("get_article_summary",
	mcp.WithDescription("Get the summary of a Wikipedia article: extract, thumbnail, link and coordinates."),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("Article title"),
	),
)

// getOSMEditLinkTool defines the get_osm_edit_link MCP tool.
var getOSMEditLinkTool = mcp.NewTool("get_osm_edit_link",
	mcp.WithDescription("Get a link that opens the OpenStreetMap editor at a coordinate."),
	mcp.WithNumber("lat",
		mcp.Required(),
		mcp.Description("Latitude in decimal degrees"),
	),
	mcp.WithNumber("lon",
		mcp.Required(),
		mcp.Description("Longitude in decimal degrees"),
	),
	mcp.WithNumber("zoom",
		mcp.Description("Map zoom level (0-19)"),
	),
)
