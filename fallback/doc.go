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

// Package fallback runs extraction engines until one produces a result of
// acceptable quality.
//
// # Sequential mode
//
// Candidates are tried in priority order. Every invocation, whether it
// succeeds, fails, panics or times out, consumes one attempt from
// MaxAttempts. Engines that are unavailable or do not support the file are
// skipped without consuming an attempt. The first result scoring at least
// MinQuality is returned. When the budget runs out, the best result seen
// so far is returned with Accepted=false. Only when no engine produced a
// result does Extract fail with core.ErrAllBackendsFailed.
//
// # Parallel mode
//
// All candidates are submitted to an ants pool of min(candidates,
// MaxWorkers) workers. Each call has its own EngineTimeout and the race as
// a whole is bounded by OverallTimeout. The first qualifying result wins and
// the remaining calls are cancelled through their context. Cancellation only
// stops the strategy from waiting: an engine that ignores its context keeps
// running in the background and its result is discarded.
//
// Panics inside engines are recovered and treated as failed attempts in
// both modes.
package fallback
