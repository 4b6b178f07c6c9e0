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


// Package refcache is a read-through TTL cache for reference records
// mirrored from an external source.
//
// Keys are namespaced by kind: a collection key ("profile:all") holds a
// list result and a member key ("profile:42") holds one record.
// Invalidating a member also drops its collection, since the cached list
// would otherwise be stale. Expiry is lazy and checked on read.
//
//	profiles, err := refcache.ReadThrough(ctx, cache, refcache.CollectionKey("profile"), true,
//	    func(ctx context.Context) ([]Profile, error) { return source.List(ctx) })
package refcache
