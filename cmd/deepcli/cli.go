package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"deepcli/internal/tools"
	"deepcli/internal/tools/builtin"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
)

func newRootCmd() *cobra.Command {
	var configPath string
	var app *App

	root := &cobra.Command{
		Use:           "deepcli",
		Short:         "A CLI for querying language models through pluggable tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			app, err = NewApp(configPath)
			return err
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.deepcli/config.yaml)")

	root.AddCommand(
		newChatCmd(&app),
		newReasonCmd(&app),
		newCompleteCmd(&app),
		newRunCmd(&app),
		newToolsCmd(&app),
		newStatsCmd(&app),
		newHistoryCmd(&app),
	)
	return root
}

func newChatCmd(app **App) *cobra.Command {
	var system, model string
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Send a prompt to the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := tools.Params{"prompt": strings.Join(args, " ")}
			if system != "" {
				params["system"] = system
			}
			if model != "" {
				params["model"] = model
			}
			if jsonMode {
				params["operation"] = builtin.OpJSONCompletion
			}
			return runTool(cmd, *app, builtin.LLMQueryKey, params, "response")
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system prompt")
	cmd.Flags().StringVar(&model, "model", "", "model override")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "request strict JSON output")
	return cmd
}

func newReasonCmd(app **App) *cobra.Command {
	var background string

	cmd := &cobra.Command{
		Use:   "reason <problem>",
		Short: "Reason through a problem step by step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := tools.Params{"problem": strings.Join(args, " ")}
			if background != "" {
				params["context"] = background
			}
			return runTool(cmd, *app, builtin.ReasoningKey, params, "reasoning")
		},
	}
	cmd.Flags().StringVar(&background, "context", "", "background the reasoning should use")
	return cmd
}

func newCompleteCmd(app **App) *cobra.Command {
	var suffix, model string

	cmd := &cobra.Command{
		Use:   "complete <prefix>",
		Short: "Fill in code after a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := tools.Params{"prefix": args[0]}
			if suffix != "" {
				params["suffix"] = suffix
			}
			if model != "" {
				params["model"] = model
			}
			return runTool(cmd, *app, builtin.FIMKey, params, "completion")
		},
	}
	cmd.Flags().StringVar(&suffix, "suffix", "", "code after the gap")
	cmd.Flags().StringVar(&model, "model", "", "model override")
	return cmd
}

func newRunCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "run <tool> [key=value ...]",
		Short: "Run a registered tool with key=value parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return runTool(cmd, *app, args[0], params, "")
		},
	}
}

func newToolsCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, info := range (*app).Manager.ListTools() {
				state := mutedColor.Sprint("registered")
				if info.Loaded {
					state = successColor.Sprint("loaded")
				}
				line := fmt.Sprintf("%-20s %s", info.Key, state)
				if info.Description != "" {
					line += "  " + info.Description
				}
				cmd.Println(line)
			}
			return nil
		},
	}
}

func newStatsCmd(app **App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show performance statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Print((*app).Monitor.Snapshot().FormatText())
			return nil
		},
	}
}

func newHistoryCmd(app **App) *cobra.Command {
	var limit int
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent tool executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := (*app).Manager
			if clear {
				manager.ClearHistory()
				cmd.Println("history cleared")
				return nil
			}
			records := manager.History(limit)
			if len(records) == 0 {
				cmd.Println("no executions recorded")
				return nil
			}
			for _, rec := range records {
				status := failureColor.Sprint(string(rec.Response.Status))
				if rec.Response.Success {
					status = successColor.Sprint(string(rec.Response.Status))
				}
				cmd.Printf("%s  %-20s %s  %s\n",
					rec.StartedAt.Format("15:04:05"),
					rec.Tool,
					status,
					mutedColor.Sprintf("%.3fs", rec.Duration.Seconds()),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of records to show (0 for all)")
	cmd.Flags().BoolVar(&clear, "clear", false, "clear the history")
	return cmd
}

// runTool executes a tool and renders the response. primaryKey selects the
// data field printed as the main output; empty prints the whole data map.
func runTool(cmd *cobra.Command, app *App, key string, params tools.Params, primaryKey string) error {
	response := app.Manager.ExecuteTool(cmd.Context(), key, params)
	return renderResponse(cmd, response, primaryKey)
}

func renderResponse(cmd *cobra.Command, response *tools.Response, primaryKey string) error {
	if !response.Success {
		failureColor.Fprintf(cmd.ErrOrStderr(), "%s\n", response.Message)
		return fmt.Errorf("tool execution %s", response.Status)
	}

	if primaryKey != "" {
		if value, ok := response.Data[primaryKey].(string); ok {
			cmd.Println(value)
			return nil
		}
	}
	if len(response.Data) > 0 {
		encoded, err := json.MarshalIndent(response.Data, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(encoded))
		return nil
	}
	cmd.Println(response.Message)
	return nil
}

// parseParams turns key=value arguments into tool parameters. Values that
// parse as JSON keep their type; everything else stays a string.
func parseParams(args []string) (tools.Params, error) {
	params := make(tools.Params, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", arg)
		}
		var typed any
		if err := json.Unmarshal([]byte(value), &typed); err == nil {
			params[key] = typed
		} else {
			params[key] = value
		}
	}
	return params, nil
}
