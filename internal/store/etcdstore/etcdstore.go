/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package etcdstore is the networked, transactional store.Store
// implementation backed by go.etcd.io/etcd/client/v3. It stands in for
// the original's SurrealDB reference backend: a different product, the
// same single-serializable-transaction CAS contract.
//
// Each engine record is kept under a "record" key as a JSON-encoded
// engine.Info; its next-update deadline is kept under a sibling
// "next_update" key (etcd values are opaque bytes, so there is no
// "column" the way a relational backend would have one). Both keys are
// always mutated together, inside the same clientv3.Txn, so a reader
// never observes one updated without the other.
package etcdstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/internal/rucaterr"
	"rucat.dev/rucat/internal/statemachine"
	"rucat.dev/rucat/internal/store"
)

const (
	defaultKeyPrefix = "/rucat/engines/"
	recordSegment    = "record/"
	nextUpdateSegment = "next_update/"
	dialTimeout      = 5 * time.Second
)

// Store is the etcd-backed store.Store implementation. The zero value
// is not usable; construct with New or Dial.
type Store struct {
	client    *clientv3.Client
	keyPrefix string
}

// Options configures a new Store.
type Options struct {
	Endpoints []string
	// Credentials, if non-empty, is a "username:password" pair used to
	// authenticate with etcd.
	Credentials string
	// KeyPrefix namespaces all keys this Store reads and writes.
	// Defaults to "/rucat/engines/".
	KeyPrefix string
}

// Dial connects to etcd and returns a ready Store. The caller owns the
// returned Store's lifetime and must call Close when done.
func Dial(o Options) (*Store, error) {
	cfg := clientv3.Config{
		Endpoints:   o.Endpoints,
		DialTimeout: dialTimeout,
	}
	if o.Credentials != "" {
		user, pass, ok := strings.Cut(o.Credentials, ":")
		if !ok {
			return nil, rucaterr.New(rucaterr.FailToConnectDatabase, "credentials must be in \"username:password\" form")
		}
		cfg.Username, cfg.Password = user, pass
	}
	cli, err := clientv3.New(cfg)
	if err != nil {
		return nil, rucaterr.Wrap(rucaterr.FailToConnectDatabase, err, "dialing etcd")
	}
	return New(cli, o.KeyPrefix), nil
}

// New wraps an already-connected etcd client. A nil or empty keyPrefix
// defaults to "/rucat/engines/".
func New(client *clientv3.Client, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if !strings.HasSuffix(keyPrefix, "/") {
		keyPrefix += "/"
	}
	return &Store{client: client, keyPrefix: keyPrefix}
}

// Close releases the underlying etcd client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Store = (*Store)(nil)

func (s *Store) recordKey(id engine.Id) string {
	return s.keyPrefix + recordSegment + id.String()
}

func (s *Store) nextUpdateKey(id engine.Id) string {
	return s.keyPrefix + nextUpdateSegment + id.String()
}

func (s *Store) recordPrefix() string {
	return s.keyPrefix + recordSegment
}

func (s *Store) nextUpdatePrefix() string {
	return s.keyPrefix + nextUpdateSegment
}

func encodeNextUpdate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func decodeNextUpdate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

// AddEngine mints a fresh id and inserts a record in state WaitToStart.
// It retries id generation on the astronomically unlikely event of a
// uuid collision with an existing record.
func (s *Store) AddEngine(ctx context.Context, req engine.CreateRequest, nextUpdate *time.Time) (engine.Id, error) {
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id := engine.NewGeneratedId()
		key := s.recordKey(id)

		info := req.ToInfo(time.Now())
		value, err := json.Marshal(info)
		if err != nil {
			return engine.Id{}, rucaterr.Wrap(rucaterr.FailToUpdateDatabase, err, "encoding new engine record")
		}

		txnResp, err := s.client.Txn(ctx).
			If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
			Then(
				clientv3.OpPut(key, string(value)),
				clientv3.OpPut(s.nextUpdateKey(id), encodeNextUpdate(nextUpdate)),
			).
			Commit()
		if err != nil {
			return engine.Id{}, rucaterr.Wrap(rucaterr.FailToUpdateDatabase, err, "inserting new engine record")
		}
		if txnResp.Succeeded {
			return id, nil
		}
		// Id already taken; try again with a freshly generated one.
	}
	return engine.Id{}, rucaterr.New(rucaterr.FailToUpdateDatabase, "failed to allocate a unique engine id after %d attempts", maxAttempts)
}

func (s *Store) getInfo(ctx context.Context, id engine.Id) (*engine.Info, int64, error) {
	resp, err := s.client.Get(ctx, s.recordKey(id))
	if err != nil {
		return nil, 0, rucaterr.Wrap(rucaterr.FailToReadDatabase, err, "reading engine record")
	}
	if len(resp.Kvs) == 0 {
		return nil, 0, nil
	}
	var info engine.Info
	if err := json.Unmarshal(resp.Kvs[0].Value, &info); err != nil {
		return nil, 0, rucaterr.Wrap(rucaterr.FailToReadDatabase, err, "decoding engine record")
	}
	return &info, resp.Kvs[0].ModRevision, nil
}

func (s *Store) GetEngine(ctx context.Context, id engine.Id) (*engine.Info, error) {
	info, _, err := s.getInfo(ctx, id)
	return info, err
}

// RemoveEngine conditionally deletes the record for id. The CAS check
// compares the record's ModRevision at read time against the revision
// seen at commit time: since no actor other than UpdateEngineState and
// RemoveEngine ever mutates a record, an unchanged ModRevision is
// equivalent to "current state still equals expected".
func (s *Store) RemoveEngine(ctx context.Context, id engine.Id, expected engine.State) (*store.UpdateResp, error) {
	info, rev, err := s.getInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	if !info.State.Equal(expected) {
		return &store.UpdateResp{BeforeState: info.State, Success: false}, nil
	}

	key := s.recordKey(id)
	txnResp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(key), "=", rev)).
		Then(
			clientv3.OpDelete(key),
			clientv3.OpDelete(s.nextUpdateKey(id)),
		).
		Else(clientv3.OpGet(key)).
		Commit()
	if err != nil {
		return nil, rucaterr.Wrap(rucaterr.FailToUpdateDatabase, err, "removing engine record")
	}
	if txnResp.Succeeded {
		return &store.UpdateResp{BeforeState: info.State, Success: true}, nil
	}
	return &store.UpdateResp{BeforeState: s.actualStateFromElse(txnResp, info.State), Success: false}, nil
}

// UpdateEngineState performs the sole CAS primitive in the design. It
// is implemented as: read the record, reject immediately (without a
// round trip) if its state doesn't already match before, then commit a
// transaction guarded by the record's ModRevision so a concurrent
// writer that raced between the read and the commit causes this
// attempt to fail rather than silently overwrite.
func (s *Store) UpdateEngineState(ctx context.Context, id engine.Id, before, after engine.State, nextUpdate *time.Time) (*store.UpdateResp, error) {
	info, rev, err := s.getInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	if !info.State.Equal(before) {
		return &store.UpdateResp{BeforeState: info.State, Success: false}, nil
	}

	updated := *info
	updated.State = after
	value, err := json.Marshal(updated)
	if err != nil {
		return nil, rucaterr.Wrap(rucaterr.FailToUpdateDatabase, err, "encoding updated engine record")
	}

	key := s.recordKey(id)
	txnResp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(key), "=", rev)).
		Then(
			clientv3.OpPut(key, string(value)),
			clientv3.OpPut(s.nextUpdateKey(id), encodeNextUpdate(nextUpdate)),
		).
		Else(clientv3.OpGet(key)).
		Commit()
	if err != nil {
		return nil, rucaterr.Wrap(rucaterr.FailToUpdateDatabase, err, "updating engine state")
	}
	if txnResp.Succeeded {
		return &store.UpdateResp{BeforeState: before, Success: true}, nil
	}
	return &store.UpdateResp{BeforeState: s.actualStateFromElse(txnResp, info.State), Success: false}, nil
}

// actualStateFromElse decodes the Else-branch Get response of a failed
// Txn to report the record's true current state; fallback is returned
// if the response can't be decoded (should not happen in practice).
func (s *Store) actualStateFromElse(txnResp *clientv3.TxnResponse, fallback engine.State) engine.State {
	if len(txnResp.Responses) == 0 {
		return fallback
	}
	getResp := txnResp.Responses[0].GetResponseRange()
	if getResp == nil || len(getResp.Kvs) == 0 {
		return fallback
	}
	var info engine.Info
	if err := json.Unmarshal(getResp.Kvs[0].Value, &info); err != nil {
		return fallback
	}
	return info.State
}

func (s *Store) ListEngines(ctx context.Context) ([]engine.Id, error) {
	resp, err := s.client.Get(ctx, s.recordPrefix(), clientv3.WithPrefix(), clientv3.WithKeysOnly(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, rucaterr.Wrap(rucaterr.FailToReadDatabase, err, "listing engines")
	}
	ids := make([]engine.Id, 0, len(resp.Kvs))
	prefix := s.recordPrefix()
	for _, kv := range resp.Kvs {
		ids = append(ids, engine.MustNewId(strings.TrimPrefix(string(kv.Key), prefix)))
	}
	return ids, nil
}

func (s *Store) ListEnginesNeedUpdate(ctx context.Context) ([]store.EngineIdAndInfo, error) {
	records, err := s.client.Get(ctx, s.recordPrefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, rucaterr.Wrap(rucaterr.FailToReadDatabase, err, "listing engine records")
	}
	nextUpdates, err := s.client.Get(ctx, s.nextUpdatePrefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, rucaterr.Wrap(rucaterr.FailToReadDatabase, err, "listing engine next-update deadlines")
	}

	nextUpdatePrefix := s.nextUpdatePrefix()
	deadlines := make(map[string]*time.Time, len(nextUpdates.Kvs))
	for _, kv := range nextUpdates.Kvs {
		id := strings.TrimPrefix(string(kv.Key), nextUpdatePrefix)
		deadlines[id] = decodeNextUpdate(string(kv.Value))
	}

	recordPrefix := s.recordPrefix()
	now := time.Now()
	var out []store.EngineIdAndInfo
	for _, kv := range records.Kvs {
		idStr := strings.TrimPrefix(string(kv.Key), recordPrefix)
		var info engine.Info
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			return nil, rucaterr.Wrap(rucaterr.FailToReadDatabase, err, "decoding engine record")
		}
		if statemachine.NeedsUpdate(info.State, deadlines[idStr], now) {
			out = append(out, store.EngineIdAndInfo{Id: engine.MustNewId(idStr), Info: info})
		}
	}
	return out, nil
}
