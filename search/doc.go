// Copyright 2025 Poiesic Systems
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


// Package search locates a literal term in scanned books.
//
// The Matcher walks each book's lines in order and reports:
//   - direct matches, where a single line contains the term
//   - hyphen-joined matches, where a line ends in "-" and the term appears
//     once the hyphen is dropped and the next adjacent line is appended
//
// Matching is literal and case-sensitive. Hits are reported in book order,
// then in line order, and always point at the line where the match begins.
//
// How a matched line is carried into the next hyphen-join check is selected
// with a JoinPolicy.
package search
