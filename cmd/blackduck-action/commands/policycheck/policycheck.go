// Copyright 2025 venslabs
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

package policycheck

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/venslabs/blackduck-action/cmd/blackduck-action/version"
	"github.com/venslabs/blackduck-action/pkg/blackduck"
	"github.com/venslabs/blackduck-action/pkg/envutil"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "policycheck",
		Short:                 "Check that the Black Duck server has at least one enabled policy",
		Example:               "  blackduck-action policycheck --blackduck-url https://blackduck.example.com",
		Args:                  cobra.NoArgs,
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	flags.String("blackduck-url", envutil.String("BLACKDUCK_URL", "blackduck-url", ""), "Black Duck server URL [$BLACKDUCK_URL]")
	flags.String("blackduck-api-token", envutil.String("BLACKDUCK_API_TOKEN", "blackduck-api-token", ""), "Black Duck API token [$BLACKDUCK_API_TOKEN]")
	flags.Bool("trust-cert", envutil.Bool("BLACKDUCK_TRUST_CERT", "detect-trust-cert", false), "Accept any Black Duck server certificate [$BLACKDUCK_TRUST_CERT]")

	return cmd
}

func action(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	url, err := flags.GetString("blackduck-url")
	if err != nil {
		return err
	}
	token, err := flags.GetString("blackduck-api-token")
	if err != nil {
		return err
	}
	if url == "" || token == "" {
		return errors.New("both --blackduck-url and --blackduck-api-token must be provided")
	}
	trustCert, err := flags.GetBool("trust-cert")
	if err != nil {
		return err
	}

	bd := blackduck.New(url, token, blackduck.ClientOpts{
		HTTPClient: blackduck.NewHTTPClient(trustCert),
		UserAgent:  version.UserAgent(),
	})
	exist, err := bd.EnabledPoliciesExist(cmd.Context())
	if err != nil {
		return err
	}
	if !exist {
		return fmt.Errorf("no enabled policies found on %s", blackduck.CleanURL(url))
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "At least one enabled policy exists.")
	return err
}
