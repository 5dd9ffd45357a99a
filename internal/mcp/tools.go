package mcp

import "github.com/mark3labs/mcp-go/mcp"

var todayToolDef = mcp.NewTool("giveaway_today",
	mcp.WithDescription("Get today's pick: one free Linux application and one game, "+
		"with names, official pages and download links."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var catalogToolDef = mcp.NewTool("giveaway_catalog",
	mcp.WithDescription("List the recent picks kept in the catalog, newest first. "+
		"Unknown ids are shown with placeholder names."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of picks to return (default 20, max 100)"),
		mcp.Min(1),
		mcp.Max(100),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of picks to skip"),
		mcp.Min(0),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var validateToolDef = mcp.NewTool("giveaway_validate",
	mcp.WithDescription("Check every data file: JSON syntax, required fields, "+
		"references from picks.json, and the catalog and history stores. "+
		"The first problem is returned as a coded error naming the file, index and field."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var archiveToolDef = mcp.NewTool("giveaway_archive",
	mcp.WithDescription("Look up the long-term pick archive. With date, return the pick "+
		"for that day; without, list archived picks newest first."),
	mcp.WithString("date",
		mcp.Description("Day to look up, YYYY-MM-DD"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of picks to list (default 20, max 100)"),
		mcp.Min(1),
		mcp.Max(100),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of picks to skip"),
		mcp.Min(0),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)
