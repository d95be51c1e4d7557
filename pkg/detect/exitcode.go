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

package detect

import "strconv"

// ExitCode is the process exit status of Detect.
type ExitCode int

const (
	ExitSuccess                             ExitCode = 0
	ExitFailureBlackDuckConnectivity        ExitCode = 1
	ExitFailureTimeout                      ExitCode = 2
	ExitFailurePolicyViolation              ExitCode = 3
	ExitFailureProxyConnectivity            ExitCode = 4
	ExitFailureDetector                     ExitCode = 5
	ExitFailureScan                         ExitCode = 6
	ExitFailureConfiguration                ExitCode = 7
	ExitFailureDetectorRequired             ExitCode = 9
	ExitFailureBlackDuckVersionNotSupported ExitCode = 10
	ExitFailureBlackDuckFeatureError        ExitCode = 11
	ExitFailurePolarisConnectivity          ExitCode = 12
	ExitFailureGeneralError                 ExitCode = 99
	ExitFailureUnknownError                 ExitCode = 100
)

var exitCodeNames = map[ExitCode]string{
	ExitSuccess:                             "SUCCESS",
	ExitFailureBlackDuckConnectivity:        "FAILURE_BLACKDUCK_CONNECTIVITY",
	ExitFailureTimeout:                      "FAILURE_TIMEOUT",
	ExitFailurePolicyViolation:              "FAILURE_POLICY_VIOLATION",
	ExitFailureProxyConnectivity:            "FAILURE_PROXY_CONNECTIVITY",
	ExitFailureDetector:                     "FAILURE_DETECTOR",
	ExitFailureScan:                         "FAILURE_SCAN",
	ExitFailureConfiguration:                "FAILURE_CONFIGURATION",
	ExitFailureDetectorRequired:             "FAILURE_DETECTOR_REQUIRED",
	ExitFailureBlackDuckVersionNotSupported: "FAILURE_BLACKDUCK_VERSION_NOT_SUPPORTED",
	ExitFailureBlackDuckFeatureError:        "FAILURE_BLACKDUCK_FEATURE_ERROR",
	ExitFailurePolarisConnectivity:          "FAILURE_POLARIS_CONNECTIVITY",
	ExitFailureGeneralError:                 "FAILURE_GENERAL_ERROR",
	ExitFailureUnknownError:                 "FAILURE_UNKNOWN_ERROR",
}

// Name returns the Detect name of the code, or "UNKNOWN_EXIT_CODE_<n>".
func (c ExitCode) Name() string {
	if n, ok := exitCodeNames[c]; ok {
		return n
	}
	return "UNKNOWN_EXIT_CODE_" + strconv.Itoa(int(c))
}

func (c ExitCode) String() string {
	return strconv.Itoa(int(c)) + " - " + c.Name()
}

// SuccessOrPolicyViolation reports whether Detect produced scan results.
func (c ExitCode) SuccessOrPolicyViolation() bool {
	return c == ExitSuccess || c == ExitFailurePolicyViolation
}
