// Copyright © 2020 The ngscloud Authors.
//
//  This file is part of ngscloud.
//
//  ngscloud is free software: you can redistribute it and/or modify
//  it under the terms of the GNU Lesser General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  ngscloud is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU Lesser General Public License for more details.
//
//  You should have received a copy of the GNU Lesser General Public License
//  along with ngscloud. If not, see <http://www.gnu.org/licenses/>.

// Package remote talks to the master node of a grid engine cluster over ssh:
// command sessions for running things, sftp sessions for moving files, and a
// cached browser of the datasets stored on the cluster.
package remote

// This file contains the ssh connection and session code.

import (
	"bytes"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GGFHF/ngscloud/internal"
	"github.com/inconshreveable/log15"
	"github.com/jpillora/backoff"
	"github.com/pkg/sftp"
	sync "github.com/sasha-s/go-deadlock"
	"golang.org/x/crypto/ssh"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultAttempts = 3
)

// Commander runs commands on a node.
type Commander interface {
	// RunCmd runs cmd, returning its STDOUT and STDERR. A non-zero exit is an
	// error.
	RunCmd(ctx context.Context, cmd string) (stdout, stderr string, err error)

	// NodeState returns the node's numeric state code.
	NodeState(ctx context.Context) (int, error)

	Close() error
}

// Transferer moves files to and from a node.
type Transferer interface {
	Upload(ctx context.Context, source, dest string) error
	Download(ctx context.Context, source, dest string) (int64, error)
	Chmod(path string, mode os.FileMode) error
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	Close() error
}

// Connector opens sessions to the master node of a named cluster.
type Connector interface {
	Commands(ctx context.Context, cluster string) (Commander, error)
	Transfer(ctx context.Context, cluster string) (Transferer, error)
}

// SSHConnector is the Connector that makes real ssh connections to the
// clusters of an inventory, authenticating with a private key.
type SSHConnector struct {
	Clusters       *internal.Clusters
	PrivateKeyPath string
	Timeout        time.Duration
	Attempts       int
	Logger         log15.Logger

	signer ssh.Signer
	mutex  sync.Mutex
}

// Commands dials the cluster's master node and returns a command session on
// its own connection.
func (s *SSHConnector) Commands(ctx context.Context, cluster string) (Commander, error) {
	node, conn, err := s.dial(ctx, cluster)
	if err != nil {
		return nil, err
	}
	return &CmdSession{
		cluster: cluster,
		node:    node,
		conn:    conn,
		logger:  s.logger().New("cluster", cluster, "session", "cmd"),
	}, nil
}

// Transfer dials the cluster's master node and returns an sftp session on its
// own connection.
func (s *SSHConnector) Transfer(ctx context.Context, cluster string) (Transferer, error) {
	_, conn, err := s.dial(ctx, cluster)
	if err != nil {
		return nil, err
	}
	client, err := SFTPClient(conn)
	if err != nil {
		internal.LogClose(s.logger(), conn, "ssh connection", "cluster", cluster)
		return nil, Error{cluster, "Transfer", ErrSession, err.Error()}
	}
	return &SFTPSession{
		cluster: cluster,
		conn:    conn,
		client:  client,
		logger:  s.logger().New("cluster", cluster, "session", "sftp"),
	}, nil
}

func (s *SSHConnector) logger() log15.Logger {
	if s.Logger == nil {
		l := log15.New()
		l.SetHandler(log15.DiscardHandler())
		s.Logger = l
	}
	return s.Logger
}

// clientConfig parses the private key once and makes the ssh config for a
// node.
func (s *SSHConnector) clientConfig(cluster string, node internal.Node) (*ssh.ClientConfig, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.signer == nil {
		key, err := os.ReadFile(internal.TildaToHome(s.PrivateKeyPath))
		if err != nil {
			return nil, Error{cluster, "Dial", ErrNoKey, err.Error()}
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, Error{cluster, "Dial", ErrNoKey, err.Error()}
		}
		s.signer = signer
	}

	timeout := s.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &ssh.ClientConfig{
		User:            node.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(s.signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // cluster nodes are recreated with new host keys
		Timeout:         timeout,
	}, nil
}

// dial connects to the cluster's master node, retrying with backoff while
// the errors look like the node's sshd isn't ready yet.
func (s *SSHConnector) dial(ctx context.Context, cluster string) (internal.Node, *ssh.Client, error) {
	if s.Clusters == nil {
		return internal.Node{}, nil, Error{cluster, "Dial", ErrUnknownCluster, ""}
	}
	c, err := s.Clusters.Get(cluster)
	if err != nil {
		return internal.Node{}, nil, Error{cluster, "Dial", ErrUnknownCluster, ""}
	}
	config, err := s.clientConfig(cluster, c.Master)
	if err != nil {
		return c.Master, nil, err
	}

	attempts := s.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	addr := c.Master.Host + ":" + strconv.Itoa(c.Master.Port)
	logger := s.logger().New("cluster", cluster, "addr", addr)
	for {
		conn, errd := sshDial(ctx, addr, config, logger)
		if errd == nil {
			return c.Master, conn, nil
		}
		if ctx.Err() != nil {
			return c.Master, nil, Error{cluster, "Dial", ErrCancelled, ""}
		}
		if !transient(errd) || int(b.Attempt())+1 >= attempts {
			return c.Master, nil, Error{cluster, "Dial", ErrDial, errd.Error()}
		}
		wait := b.Duration()
		logger.Debug("ssh dial failed, will retry", "err", errd, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return c.Master, nil, Error{cluster, "Dial", ErrCancelled, ""}
		}
	}
}

// transient tells you if a dial error is worth retrying.
func transient(err error) bool {
	msg := err.Error()
	for _, suffix := range []string{"connection timed out", "no route to host", "connection refused", "connection could not be established"} {
		if strings.HasSuffix(msg, suffix) {
			return true
		}
	}
	return false
}

// sshDial calls ssh.Dial() and enforces the config's timeout, which ssh.Dial()
// doesn't always seem to obey.
func sshDial(ctx context.Context, addr string, sshConfig *ssh.ClientConfig, logger log15.Logger) (*ssh.Client, error) {
	clientCh := make(chan *ssh.Client, 1)
	errCh := make(chan error, 1)
	go func() {
		defer internal.LogPanic(logger, "sshDial", false)
		sshClient, err := ssh.Dial("tcp", addr, sshConfig)
		clientCh <- sshClient
		errCh <- err
	}()
	deadline := time.After(sshConfig.Timeout + 1*time.Second)
	select {
	case err := <-errCh:
		return <-clientCh, err
	case <-deadline:
		go closeLateClient(clientCh, logger)
		return nil, errConnectionNotEstablished
	case <-ctx.Done():
		go closeLateClient(clientCh, logger)
		return nil, errConnectionCancelled
	}
}

// closeLateClient closes the client of a dial we stopped waiting for, should
// it connect after all.
func closeLateClient(clientCh chan *ssh.Client, logger log15.Logger) {
	if client := <-clientCh; client != nil {
		internal.LogClose(logger, client, "late ssh connection")
	}
}

type dialError string

func (e dialError) Error() string { return string(e) }

const (
	errConnectionNotEstablished = dialError("connection could not be established")
	errConnectionCancelled      = dialError("connection attempt cancelled")
)

// CmdSession runs commands on a node over a dedicated ssh connection.
type CmdSession struct {
	cluster string
	node    internal.Node
	conn    *ssh.Client
	logger  log15.Logger
}

// RunCmd runs the given command on the node. You get the command's STDOUT
// and STDERR as strings.
func (c *CmdSession) RunCmd(ctx context.Context, cmd string) (stdout, stderr string, err error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return "", "", Error{c.cluster, "RunCmd", ErrSession, err.Error()}
	}
	defer internal.LogClose(c.logger, session, "ssh session", "cmd", cmd)

	var o bytes.Buffer
	var e bytes.Buffer
	session.Stdout = &o
	session.Stderr = &e
	done := make(chan error, 1)
	go func() {
		defer internal.LogPanic(c.logger, "remote runcmd", false)
		done <- session.Run(cmd)
	}()

	select {
	case errr := <-done:
		if errr != nil {
			detail := errr.Error()
			if msg := strings.TrimSpace(e.String()); msg != "" {
				detail += ": " + msg
			}
			return o.String(), e.String(), Error{c.cluster, "RunCmd", ErrCmd, detail}
		}
		return o.String(), e.String(), nil
	case <-ctx.Done():
		return "", "", Error{c.cluster, "RunCmd", ErrCancelled, cmd}
	}
}

// NodeState returns the node's state code. If the node has a StateCommand,
// its output is the code; otherwise a node that answers is StateRunning.
func (c *CmdSession) NodeState(ctx context.Context) (int, error) {
	if c.node.StateCommand == "" {
		if _, _, err := c.RunCmd(ctx, "true"); err != nil {
			return StateUnknown, err
		}
		return StateRunning, nil
	}
	stdout, _, err := c.RunCmd(ctx, c.node.StateCommand)
	if err != nil {
		return StateUnknown, err
	}
	code, err := strconv.Atoi(strings.TrimSpace(stdout))
	if err != nil {
		return StateUnknown, Error{c.cluster, "NodeState", ErrCmd, "state command printed " + strconv.Quote(stdout)}
	}
	return code, nil
}

// Close closes the underlying ssh connection.
func (c *CmdSession) Close() error {
	return c.conn.Close()
}

// SFTPClient is like sftp.NewClient(), but the underlying
// clientConn.conn.WriteCloser is mutex protected to avoid data races between
// closes due to errors and direct Close() calls on the *sftp.Client.
func SFTPClient(conn *ssh.Client) (client *sftp.Client, err error) {
	s, err := conn.NewSession()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()
	if err = s.RequestSubsystem("sftp"); err != nil {
		return nil, err
	}
	pw, err := s.StdinPipe()
	if err != nil {
		return nil, err
	}
	pw = &threadSafeWriteCloser{WriteCloser: pw}
	pr, err := s.StdoutPipe()
	if err != nil {
		return nil, err
	}

	return sftp.NewClientPipe(pr, pw)
}

type threadSafeWriteCloser struct {
	io.WriteCloser
	sync.Mutex
}

func (c *threadSafeWriteCloser) Close() error {
	c.Lock()
	defer c.Unlock()
	return c.WriteCloser.Close()
}

// SFTPSession moves files to and from a node over a dedicated ssh
// connection.
type SFTPSession struct {
	cluster string
	conn    *ssh.Client
	client  *sftp.Client
	logger  log15.Logger
}

// Upload copies a local file to dest on the node, replacing any existing
// file. The parent directory of dest must already exist.
func (s *SFTPSession) Upload(ctx context.Context, source, dest string) error {
	sourceFile, err := os.Open(source)
	if err != nil {
		return Error{s.cluster, "Upload", ErrTransfer, err.Error()}
	}
	defer internal.LogClose(s.logger, sourceFile, "upload file source", "source", source, "dest", dest)

	destFile, err := s.client.Create(dest)
	if err != nil {
		return Error{s.cluster, "Upload", ErrTransfer, dest + ": " + err.Error()}
	}

	_, err = io.Copy(destFile, &ctxReader{ctx: ctx, r: sourceFile})
	if errc := destFile.Close(); err == nil {
		err = errc
	}
	if err != nil {
		return Error{s.cluster, "Upload", ErrTransfer, dest + ": " + err.Error()}
	}
	return nil
}

// Download copies source on the node to the local file dest, returning the
// number of bytes copied. The directory for dest must already exist.
func (s *SFTPSession) Download(ctx context.Context, source, dest string) (int64, error) {
	sourceFile, err := s.client.Open(source)
	if err != nil {
		return 0, Error{s.cluster, "Download", ErrTransfer, source + ": " + err.Error()}
	}
	defer internal.LogClose(s.logger, sourceFile, "download file source", "source", source, "dest", dest)

	destFile, err := os.Create(dest)
	if err != nil {
		return 0, Error{s.cluster, "Download", ErrTransfer, err.Error()}
	}

	n, err := io.Copy(destFile, &ctxReader{ctx: ctx, r: sourceFile})
	if errc := destFile.Close(); err == nil {
		err = errc
	}
	if err != nil {
		return n, Error{s.cluster, "Download", ErrTransfer, source + ": " + err.Error()}
	}
	return n, nil
}

// Chmod changes the mode of a file on the node.
func (s *SFTPSession) Chmod(path string, mode os.FileMode) error {
	if err := s.client.Chmod(path, mode); err != nil {
		return Error{s.cluster, "Chmod", ErrTransfer, path + ": " + err.Error()}
	}
	return nil
}

// Stat returns info about a file on the node.
func (s *SFTPSession) Stat(path string) (os.FileInfo, error) {
	return s.client.Stat(path)
}

// ReadDir lists a directory on the node.
func (s *SFTPSession) ReadDir(path string) ([]os.FileInfo, error) {
	return s.client.ReadDir(path)
}

// Close closes the sftp client and then its ssh connection.
func (s *SFTPSession) Close() error {
	err := s.client.Close()
	if errc := s.conn.Close(); err == nil {
		err = errc
	}
	return err
}

// ctxReader stops a copy when its context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
