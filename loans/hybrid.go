// Copyright (c) 2014, Kevin Walsh.  All rights reserved.
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

package loans

// solveHybrid implements §4.7, the default variant: run the cheap
// LocationInsensitive pre-pass first, and only pay for DatafrogOpt's
// flow-sensitive closure when the pre-pass actually found something that
// could be a real error.
func solveHybrid(in *Input) *Result {
	pre := solveLocationInsensitive(in)
	if len(pre.PotentialErrors) == 0 && len(pre.PotentialSubsetErrors) == 0 {
		return &Result{}
	}
	full := solveDatafrogOpt(in)
	full.PotentialErrors = pre.PotentialErrors
	full.PotentialSubsetErrors = pre.PotentialSubsetErrors
	return full
}
