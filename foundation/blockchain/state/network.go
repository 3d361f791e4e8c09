package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// ErrPeerUnreachable is returned when a peer could not be reached or did not
// answer with success. The peer is left out of the current operation.
var ErrPeerUnreachable = errors.New("peer unreachable")

// PeerResult captures the outcome of a request made to a single peer during
// a broadcast.
type PeerResult struct {
	Peer peer.Peer
	Err  error
}

// FailedPeers returns a description of every peer request that failed.
func FailedPeers(results []PeerResult) []string {
	failed := []string{}
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %s", res.Peer, res.Err))
		}
	}
	return failed
}

// =============================================================================

// broadcast sends the same request to every specified peer at the same time
// and waits for all of them to finish. A failing peer never stops the others.
// The decode function, when provided, is handed each successful response body.
func (s *State) broadcast(ctx context.Context, peers []peer.Peer, method string, path string, dataSend any, decode func(pr peer.Peer, body []byte) error) []PeerResult {
	results := make([]PeerResult, len(peers))

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for i, pr := range peers {
		go func(i int, pr peer.Peer) {
			defer wg.Done()

			var body json.RawMessage
			err := s.send(ctx, method, pr.URL+path, dataSend, &body)
			if err == nil && decode != nil {
				err = decode(pr, body)
			}

			if err != nil {
				s.evHandler("state: broadcast: %s %s: peer[%s]: WARNING: %s", method, path, pr, err)
			}

			results[i] = PeerResult{Peer: pr, Err: err}
		}(i, pr)
	}

	wg.Wait()

	return results
}

// send is a helper function to send an HTTP request to a node. Every
// failure is reported as ErrPeerUnreachable.
func (s *State) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: status %d", ErrPeerUnreachable, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d: %s", ErrPeerUnreachable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return fmt.Errorf("%w: decoding response: %s", ErrPeerUnreachable, err)
		}
	}

	return nil
}
