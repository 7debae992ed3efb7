// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	"errors"

	lru "github.com/hashicorp/golang-lru"
)

// CacheType selects the cache implementation a CacheConfiger builds.
type CacheType int

const (
	LRUCacheType CacheType = iota
	ARCCacheType
)

// DefaultCacheType is used wherever a package doesn't pick one explicitly.
var DefaultCacheType CacheType = LRUCacheType

// CacheScale lets an operator shrink or grow every configured cache size
// uniformly (size = preset size * CacheScale / 100) without touching call
// sites; the code-size and trie-node caches honor it.
var CacheScale int = 100

// Cache is the narrow subset of hashicorp/golang-lru this module needs
// across storage/statedb's node cache and core/state's code-size cache.
type Cache interface {
	Add(key interface{}, value interface{}) (evicted bool)
	Get(key interface{}) (value interface{}, ok bool)
	Contains(key interface{}) bool
	Purge()
}

type lruCache struct {
	lru *lru.Cache
}

func (cache *lruCache) Add(key interface{}, value interface{}) (evicted bool) {
	return cache.lru.Add(key, value)
}

func (cache *lruCache) Get(key interface{}) (value interface{}, ok bool) {
	return cache.lru.Get(key)
}

func (cache *lruCache) Contains(key interface{}) bool {
	return cache.lru.Contains(key)
}

func (cache *lruCache) Purge() {
	cache.lru.Purge()
}

func (cache *lruCache) Remove(key interface{}) {
	cache.lru.Remove(key)
}

func (cache *lruCache) Len() int {
	return cache.lru.Len()
}

type arcCache struct {
	arc *lru.ARCCache
}

func (cache *arcCache) Add(key interface{}, value interface{}) (evicted bool) {
	cache.arc.Add(key, value)
	return true
}

func (cache *arcCache) Get(key interface{}) (value interface{}, ok bool) {
	return cache.arc.Get(key)
}

func (cache *arcCache) Contains(key interface{}) bool {
	return cache.arc.Contains(key)
}

func (cache *arcCache) Purge() {
	cache.arc.Purge()
}

func (cache *arcCache) Remove(key interface{}) {
	cache.arc.Remove(key)
}

func (cache *arcCache) Len() int {
	return cache.arc.Len()
}

// NewCache builds a Cache from a CacheConfiger (LRUConfig or ARCConfig).
func NewCache(config CacheConfiger) (Cache, error) {
	if config == nil {
		return nil, errors.New("cache config is nil")
	}
	return config.newCache()
}

type CacheConfiger interface {
	newCache() (Cache, error)
}

type LRUConfig struct {
	CacheSize int
}

func (c LRUConfig) newCache() (Cache, error) {
	cacheSize := c.CacheSize * CacheScale / 100
	if cacheSize < 1 {
		cacheSize = 1
	}
	l, err := lru.New(cacheSize)
	return &lruCache{l}, err
}

type ARCConfig struct {
	CacheSize int
}

func (c ARCConfig) newCache() (Cache, error) {
	cacheSize := c.CacheSize * CacheScale / 100
	if cacheSize < 1 {
		cacheSize = 1
	}
	arc, err := lru.NewARC(cacheSize)
	return &arcCache{arc}, err
}
