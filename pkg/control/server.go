// Copyright 2026 The CamFlow Authors.
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

package control

import (
	"os"

	"golang.org/x/sys/unix"
	"gvisor.dev/gvisor/pkg/log"
	"gvisor.dev/gvisor/pkg/sync"
	"gvisor.dev/gvisor/pkg/unet"
	"gvisor.dev/gvisor/pkg/urpc"
)

// curUID is the unix user ID this control server runs as.
var curUID = os.Getuid()

// A Server owns the control socket and dispatches incoming requests to
// the IFC endpoints. Connections are accepted only from the server's own
// user and root; SelfTag is unconditional, so the socket is the trust
// boundary.
type Server struct {
	// socket is our bound socket.
	socket *unet.ServerSocket

	// server is our rpc server.
	server *urpc.Server

	// wg waits for the accept loop to terminate.
	wg sync.WaitGroup
}

// NewServer returns a control server bound to socket with the IFC
// endpoints registered.
func NewServer(socket *unet.ServerSocket, i *IFC) *Server {
	s := &Server{
		socket: socket,
		server: urpc.NewServer(),
	}
	s.server.Register(i)
	return s
}

// CreateServer binds a new control server at addr.
func CreateServer(addr string, i *IFC) (*Server, error) {
	socket, err := unet.Bind(addr, false)
	if err != nil {
		return nil, err
	}
	return NewServer(socket, i), nil
}

// ServerFromFD creates a control server bound to an inherited socket fd.
func ServerFromFD(fd int, i *IFC) (*Server, error) {
	socket, err := unet.NewServerSocket(fd)
	if err != nil {
		return nil, err
	}
	return NewServer(socket, i), nil
}

// FD returns the file descriptor the server is listening on.
func (s *Server) FD() int {
	return s.socket.FD()
}

// Wait waits for the accept loop to exit, after a call to StartServing.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Stop stops the server. The server must not be used afterwards.
func (s *Server) Stop() {
	s.socket.Close()
	s.wg.Wait()
	s.server.Stop(0)
}

// StartServing starts listening and spawns the accept loop. It does not
// block; call Wait to wait for the server to exit.
func (s *Server) StartServing() error {
	if err := s.socket.Listen(); err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		s.serve()
		s.wg.Done()
	}()
	return nil
}

// serve accepts control connections and hands them to the rpc server.
func (s *Server) serve() {
	for {
		conn, err := s.socket.Accept()
		if err != nil {
			return
		}

		ucred, err := unix.GetsockoptUcred(conn.FD(), unix.SOL_SOCKET, unix.SO_PEERCRED)
		if err != nil {
			log.Warningf("control: no peer credentials: %v", err)
			conn.Close()
			continue
		}

		// Only this user and root.
		if int(ucred.Uid) != curUID && ucred.Uid != 0 {
			log.Warningf("control: rejecting uid %d (serving uid %d)", ucred.Uid, curUID)
			conn.Close()
			continue
		}

		s.server.StartHandling(conn)
	}
}
