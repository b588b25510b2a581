// Package ingest receives a browser microphone over WebRTC and feeds the
// decoded PCM to an audio analyzer.
package ingest

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/pion/webrtc/v4"
	"gopkg.in/hraban/opus.v2"

	"pulseanime/internal/audio"
)

//go:embed mic.html
var micPage []byte

// maxFrame is the largest opus frame (120 ms) in samples per channel.
const maxFrame = audio.SampleRate * 120 / 1000

// Server negotiates recvonly audio peers and taps their decoded PCM into
// an Analyzer.
type Server struct {
	analyzer *audio.Analyzer

	mu     sync.Mutex
	peers  []*webrtc.PeerConnection
	closed bool
}

func New(a *audio.Analyzer) *Server {
	return &Server{analyzer: a}
}

// Handler serves the capture page at / and SDP negotiation at /offer.
func (in *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(micPage)
	})
	mux.Handle("/offer", in)
	return mux
}

// PeerCount returns the number of connected senders.
func (in *Server) PeerCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.peers)
}

func (in *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		pc.Close()
		http.Error(w, "add transceiver failed", http.StatusInternalServerError)
		return
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if !strings.EqualFold(track.Codec().MimeType, webrtc.MimeTypeOpus) {
			log.Printf("audio: ignoring %s track", track.Codec().MimeType)
			return
		}
		in.consume(track)
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed ||
			s == webrtc.PeerConnectionStateDisconnected {
			if in.removePeer(pc) {
				pc.Close()
				log.Printf("audio: sender disconnected (remaining: %d)", in.PeerCount())
			}
		}
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}
	<-gatherComplete

	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		pc.Close()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	in.peers = append(in.peers, pc)
	in.mu.Unlock()
	log.Printf("audio: sender connected (total: %d)", in.PeerCount())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

// consume decodes a remote opus track until it ends.
func (in *Server) consume(track *webrtc.TrackRemote) {
	channels := int(track.Codec().Channels)
	if channels <= 0 || channels > audio.Channels {
		channels = audio.Channels
	}
	dec, err := opus.NewDecoder(audio.SampleRate, channels)
	if err != nil {
		log.Printf("audio: opus decoder: %v", err)
		return
	}
	pcm := make([]int16, maxFrame*channels)
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		n, err := dec.Decode(pkt.Payload, pcm)
		if err != nil {
			log.Printf("audio: opus decode: %v", err)
			continue
		}
		in.analyzer.Tap(pcm[:n*channels], channels)
	}
}

func (in *Server) removePeer(pc *webrtc.PeerConnection) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, p := range in.peers {
		if p == pc {
			in.peers = append(in.peers[:i], in.peers[i+1:]...)
			return true
		}
	}
	return false
}

// Close hangs up every sender.
func (in *Server) Close() error {
	in.mu.Lock()
	peers := in.peers
	in.peers = nil
	in.closed = true
	in.mu.Unlock()
	for _, pc := range peers {
		pc.Close()
	}
	return nil
}
