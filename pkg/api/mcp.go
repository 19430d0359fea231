package api

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/retailmap/pkg/kit"
)

// RegisterMCPTools registers the district and category tools on srv.
func RegisterMCPTools(srv *server.MCPServer, s *Service) {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Recover(), kit.Logging(s.Logger, name))(ep)
	}

	kit.RegisterMCPTool(srv, mcp.NewTool("district_stats",
		mcp.WithDescription("List district statistics rows (population in thousands, income per capita, total income)."),
		mcp.WithString("state", mcp.Description("Optional state name or 3-letter polygon code to filter by")),
	), wrap("district_stats", districtStatsEndpoint(s)), func(req mcp.CallToolRequest) (any, error) {
		state, _ := req.GetArguments()["state"].(string)
		return &districtStatsRequest{State: strings.TrimSpace(state)}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("match_district",
		mcp.WithDescription("Match a polygon's state and district names to a statistics row and report which strategy matched."),
		mcp.WithString("state", mcp.Required(), mcp.Description("State name or 3-letter polygon code, e.g. WPK")),
		mcp.WithString("district", mcp.Required(), mcp.Description("District name as it appears on the polygon")),
	), wrap("match_district", matchDistrictEndpoint(s)), func(req mcp.CallToolRequest) (any, error) {
		args := req.GetArguments()
		state, _ := args["state"].(string)
		dist, _ := args["district"].(string)
		if strings.TrimSpace(state) == "" && strings.TrimSpace(dist) == "" {
			return nil, fmt.Errorf("state or district is required")
		}
		return &matchRequest{State: state, District: dist}, nil
	})

	kit.RegisterMCPTool(srv, mcp.NewTool("list_categories",
		mcp.WithDescription("List store categories with their brands and map colors."),
	), wrap("list_categories", categoriesEndpoint(s)), func(mcp.CallToolRequest) (any, error) {
		return nil, nil
	})
}
