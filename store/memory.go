/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import "sync"

// MemoryMessageStore is a process-local, non-persistent MessageStore. It is
// the store the tests use and the one cmd/fixengine falls back to when a
// session has no SQLiteStorePath, mirroring quickfix's MemoryStoreFactory.
type MemoryMessageStore struct {
	mu sync.RWMutex

	messages map[int][]byte
	nextSend int
	nextRecv int
}

// NewMemoryMessageStore returns a store with both cursors at 1.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{
		messages: make(map[int][]byte),
		nextSend: 1,
		nextRecv: 1,
	}
}

func (s *MemoryMessageStore) SetMessage(seqNum int, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), raw...)
	s.messages[seqNum] = cp
	return nil
}

func (s *MemoryMessageStore) GetMessages(begin, end int) ([]StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []StoredMessage
	for seq := begin; seq <= end; seq++ {
		raw, ok := s.messages[seq]
		if !ok {
			continue
		}
		out = append(out, StoredMessage{SeqNum: seq, Raw: append([]byte(nil), raw...)})
	}
	return out, nil
}

func (s *MemoryMessageStore) NextSenderMsgSeqNum() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSend, nil
}

func (s *MemoryMessageStore) NextTargetMsgSeqNum() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRecv, nil
}

func (s *MemoryMessageStore) SetNextSenderMsgSeqNum(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSend = n
	return nil
}

func (s *MemoryMessageStore) SetNextTargetMsgSeqNum(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecv = n
	return nil
}

func (s *MemoryMessageStore) IncrNextSenderMsgSeqNum() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSend++
	return nil
}

func (s *MemoryMessageStore) IncrNextTargetMsgSeqNum() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecv++
	return nil
}

func (s *MemoryMessageStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make(map[int][]byte)
	s.nextSend = 1
	s.nextRecv = 1
	return nil
}

func (s *MemoryMessageStore) Refresh() error {
	return nil
}
