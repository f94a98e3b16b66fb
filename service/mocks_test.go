package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/parasol-labs/checkin/core"
	"github.com/parasol-labs/checkin/ports"
)

type fakeProvider struct {
	mu sync.Mutex

	loginCalls  int
	loginToken  string
	loginErr    error
	loggedIn    bool
	loggedInErr error
	infoCalls   int
	info        *core.Account
	infoErrs    []error
	signedReq   *core.TransferRequest
	signedOpts  ports.SignOptions
	signed      *ports.SignedTransaction
	signErr     error
	logoutCalls int
}

func (p *fakeProvider) LoginWithEmailOTP(ctx context.Context, email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.loginCalls++
	if p.loginErr != nil {
		return "", p.loginErr
	}
	return p.loginToken, nil
}

func (p *fakeProvider) IsLoggedIn(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loggedIn, p.loggedInErr
}

func (p *fakeProvider) GetInfo(ctx context.Context) (*core.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.infoCalls++
	if len(p.infoErrs) > 0 {
		err := p.infoErrs[0]
		p.infoErrs = p.infoErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if p.info == nil {
		return nil, fmt.Errorf("no info configured")
	}
	copied := *p.info
	return &copied, nil
}

func (p *fakeProvider) SignTransaction(ctx context.Context, req *core.TransferRequest, opts ports.SignOptions) (*ports.SignedTransaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.signedReq = req
	p.signedOpts = opts
	if p.signErr != nil {
		return nil, p.signErr
	}
	return p.signed, nil
}

func (p *fakeProvider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logoutCalls++
	return nil
}

type fakeChain struct {
	mu sync.Mutex

	balance       uint64
	balanceErr    error
	balanceCalls  int
	blockhash     string
	blockhashErr  error
	airdropSig    string
	airdropErr    error
	airdropCalls  int
	airdropAmount uint64
	confirmErr    error
	confirmCalls  int
	sentRaw       []byte
	sendSig       string
	sendErr       error
	sendCalls     int
}

func (c *fakeChain) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceCalls + c.airdropCalls + c.confirmCalls + c.sendCalls
}

func (c *fakeChain) GetBalance(ctx context.Context, address string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balanceCalls++
	return c.balance, c.balanceErr
}

func (c *fakeChain) GetLatestBlockhash(ctx context.Context) (string, error) {
	return c.blockhash, c.blockhashErr
}

func (c *fakeChain) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.airdropCalls++
	c.airdropAmount = lamports
	return c.airdropSig, c.airdropErr
}

func (c *fakeChain) ConfirmTransaction(ctx context.Context, signature string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmCalls++
	return c.confirmErr
}

func (c *fakeChain) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendCalls++
	c.sentRaw = raw
	return c.sendSig, c.sendErr
}

type fakePublisher struct {
	mu      sync.Mutex
	logins  []string
	logouts []string
}

func (p *fakePublisher) PublishLogin(ctx context.Context, email string, credentialID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, email)
	return nil
}

func (p *fakePublisher) PublishLogout(ctx context.Context, address string, credentialID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, address)
	return nil
}

type stubTokenizer struct{}

func (stubTokenizer) CredentialToToken(credential *core.Credential) (string, error) {
	return "access-" + credential.ID, nil
}

func (stubTokenizer) TokenToCredential(token string) (*core.Credential, error) {
	return nil, core.ErrInvalidToken
}
