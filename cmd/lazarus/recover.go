// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"log/slog"
	"os"

	"github.com/blinklabs-io/lazarus/internal/config"
	"github.com/blinklabs-io/lazarus/internal/node"
	"github.com/spf13/cobra"
)

var recoverFlags = struct {
	trimIncomplete bool
}{}

func recoverRun(_ *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun()
	if err := node.Run(cfg, logger, node.Options{
		TrimIncomplete: recoverFlags.trimIncomplete,
	}); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func recoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Rebuild chain and account state from persistent storage",
		Run: func(cmd *cobra.Command, args []string) {
			recoverRun(cmd, args, configFromContext(cmd))
		},
	}
	cmd.Flags().
		BoolVar(&recoverFlags.trimIncomplete, "trim-incomplete", false, "discard blocks from the incomplete epoch")
	return cmd
}

func validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Recover state and verify it against the last tx block",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromContext(cmd)
			logger := commonRun()
			if err := node.Run(cfg, logger, node.Options{
				ValidateOnly: true,
			}); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	return cmd
}

func cleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove all persisted state",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromContext(cmd)
			logger := commonRun()
			if err := node.Clean(cfg, logger); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			logger.Info("persisted state removed", "component", programName)
		},
	}
	return cmd
}
