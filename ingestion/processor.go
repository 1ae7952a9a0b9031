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

package ingestion

import (
	"context"

	"github.com/poiesic/docingest/core"
)

// item is one file moving through the stages.
type item struct {
	path string
	doc  *core.IngestedDocument
}

// processor is an internal interface for one per-file stage.
// Implementations fill in their part of item.doc.
type processor interface {
	// process runs the stage for a single file.
	process(ctx context.Context, it *item) error
}
