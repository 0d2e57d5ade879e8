package toolcatalog

// Function describes one tool exposed by an MCP server.
type Function struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Server      string         `json:"-" yaml:"server"`
	Parameters  map[string]any `json:"parameters" yaml:"parameters"`
}

// Tool is the function-calling envelope handed to a model.
type Tool struct {
	Type     string   `json:"type" yaml:"type"`
	Function Function `json:"function" yaml:"function"`
}

func prop(typ, description string) map[string]any {
	p := map[string]any{"type": typ}
	if description != "" {
		p["description"] = description
	}
	return p
}

func enum(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func object(properties map[string]any, required ...string) map[string]any {
	o := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

var taskStatus = []string{"deferred", "todo", "in-progress", "done"}

// knownFunctions lists the tools of each supported MCP server. Servers not
// listed here can be configured but contribute no functions.
var knownFunctions = map[string][]Function{
	"github": {
		{
			Name:        "github_search_code",
			Description: "Search code across GitHub repositories",
			Parameters: object(map[string]any{
				"query":    prop("string", "Search query"),
				"language": prop("string", "Programming language filter"),
			}, "query"),
		},
		{
			Name:        "github_create_pr",
			Description: "Create a pull request on GitHub",
			Parameters: object(map[string]any{
				"title": prop("string", "PR title"),
				"body":  prop("string", "PR description"),
				"base":  prop("string", "Base branch"),
				"head":  prop("string", "Head branch"),
			}, "title", "body", "base", "head"),
		},
		{
			Name:        "github_create_issue",
			Description: "Create an issue on GitHub",
			Parameters: object(map[string]any{
				"title":  prop("string", "Issue title"),
				"body":   prop("string", "Issue description"),
				"labels": stringArray(),
			}, "title", "body"),
		},
	},
	"task-master-ai": {
		{
			Name:        "task_master_add_task",
			Description: "Add a new task to Task Master",
			Parameters: object(map[string]any{
				"title":       prop("string", "Task title"),
				"tag":         prop("string", "Task tag"),
				"status":      enum(taskStatus...),
				"description": prop("string", "Task description"),
				"priority":    enum("high", "medium", "low"),
			}, "title", "tag"),
		},
		{
			Name:        "task_master_get_tasks",
			Description: "Retrieve tasks from Task Master",
			Parameters: object(map[string]any{
				"tag":          prop("string", "Filter by tag"),
				"status":       prop("string", "Filter by status"),
				"withSubtasks": prop("boolean", "Include subtasks"),
			}),
		},
		{
			Name:        "task_master_update_task",
			Description: "Update an existing task",
			Parameters: object(map[string]any{
				"id":     prop("string", "Task ID"),
				"tag":    prop("string", "Task tag"),
				"prompt": prop("string", "Update instructions"),
				"status": enum(taskStatus...),
			}, "id", "tag", "prompt"),
		},
		{
			Name:        "task_master_research",
			Description: "Conduct deep research and save to file",
			Parameters: object(map[string]any{
				"query":       prop("string", "Research query"),
				"projectRoot": prop("string", "Project root directory"),
				"tag":         prop("string", "Task tag"),
				"filePaths":   prop("string", "Comma-separated file paths"),
				"saveToFile":  prop("boolean", "Save results to file"),
				"detailLevel": enum("low", "medium", "high"),
			}, "query", "projectRoot"),
		},
	},
	"perplexity": {
		{
			Name:        "perplexity_search",
			Description: "Search the web using Perplexity",
			Parameters: object(map[string]any{
				"query": prop("string", "Search query"),
			}, "query"),
		},
		{
			Name:        "perplexity_reason",
			Description: "Deep reasoning with Perplexity",
			Parameters: object(map[string]any{
				"query":   prop("string", "Reasoning query"),
				"context": prop("string", "Additional context"),
			}, "query"),
		},
	},
	"context7": {
		{
			Name:        "context7_search_docs",
			Description: "Search library documentation",
			Parameters: object(map[string]any{
				"library": prop("string", "Library name"),
				"query":   prop("string", "Search query"),
			}, "library", "query"),
		},
	},
	"deepwiki": {
		{
			Name:        "deepwiki_analyze_repo",
			Description: "Analyze repository patterns and insights",
			Parameters: object(map[string]any{
				"repo_url": prop("string", "Repository URL"),
				"query":    prop("string", "Analysis query"),
			}, "repo_url"),
		},
	},
	"knowledgegraph": {
		{
			Name:        "knowledge_graph_store",
			Description: "Store knowledge in the knowledge graph",
			Parameters: object(map[string]any{
				"entity":     prop("string", "Entity name"),
				"type":       prop("string", "Entity type"),
				"properties": prop("object", "Entity properties"),
			}, "entity", "type"),
		},
		{
			Name:        "knowledge_graph_query",
			Description: "Query the knowledge graph",
			Parameters: object(map[string]any{
				"query": prop("string", "Query string"),
			}, "query"),
		},
	},
	"sequential-thinking": {
		{
			Name:        "sequential_think",
			Description: "Structured reasoning process",
			Parameters: object(map[string]any{
				"problem": prop("string", "Problem statement"),
				"steps":   stringArray(),
			}, "problem"),
		},
	},
}

// KnownServers returns the names of servers with a function table, sorted.
func KnownServers() []string {
	return sortedKeys(knownFunctions)
}
