// Package cache holds the in-memory caches of the shader toolchains.
//
// Cache[K, V] is a thread-safe least-recently-used cache with a fixed
// capacity. Toolchains key it by the SHA-256 digest of a module's source,
// so loading the same source twice reuses the first lowering:
//
//	modules := cache.New[[32]byte, *ir.Module](64)
//	mod, err := modules.GetOrLoad(sha256.Sum256(src), lower)
//
// A failed load is not cached.
package cache
