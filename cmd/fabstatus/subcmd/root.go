/*
	(c) Copyright NetFoundry Inc. Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package subcmd

import (
	"os"

	"github.com/michaelquigley/pfxlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var RootCmd = &cobra.Command{
	Use:   "fabstatus",
	Short: "Roll child resource states up into their parent groups",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
	SilenceUsage: true,
}

var (
	verbose bool
	logJSON bool
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
}

func Execute() error {
	return RootCmd.Execute()
}

func initLogging() {
	level := logrus.InfoLevel
	if verbose {
		level = logrus.DebugLevel
	}

	if logJSON {
		logrus.SetLevel(level)
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}

	options := pfxlog.DefaultOptions().SetTrimPrefix("github.com/openziti/")
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		options = options.NoColor()
	}
	pfxlog.GlobalInit(level, options)
}
