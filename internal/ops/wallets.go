package ops

import (
	"encoding/csv"
	"fmt"
	"os"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// WalletCredential holds the signing identity for one wallet. The private
// key must never be logged; String keeps it out of formatted output.
type WalletCredential struct {
	Name         string
	L1Address    string
	L1PrivateKey string
}

func (c WalletCredential) String() string {
	return fmt.Sprintf("wallet{%s %s}", c.Name, c.L1Address)
}

// WalletStore resolves wallet names to credentials.
type WalletStore struct {
	creds map[string]WalletCredential
}

// LoadWallets reads the wallet CSV file. Expected header:
// wallet_name,l1_address,l1_private_key
func LoadWallets(path string) (*WalletStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(exception.ErrConfiguration, err.Error())
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrap(exception.ErrConfiguration, err.Error())
	}
	if len(rows) < 2 {
		return nil, errors.Wrap(exception.ErrConfiguration, "wallet file has no entries")
	}

	header := rows[0]
	if len(header) < 3 || header[0] != "wallet_name" || header[1] != "l1_address" || header[2] != "l1_private_key" {
		return nil, errors.Wrap(exception.ErrConfiguration, "wallet file header mismatch")
	}

	creds := make(map[string]WalletCredential, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 3 || row[0] == "" || row[1] == "" || row[2] == "" {
			return nil, errors.Wrap(exception.ErrConfiguration,
				fmt.Sprintf("wallet file row %d is incomplete", i+2))
		}
		if _, ok := creds[row[0]]; ok {
			return nil, errors.Wrap(exception.ErrConfiguration,
				fmt.Sprintf("duplicate wallet name %q", row[0]))
		}
		creds[row[0]] = WalletCredential{
			Name:         row[0],
			L1Address:    row[1],
			L1PrivateKey: row[2],
		}
	}

	return &WalletStore{creds: creds}, nil
}

// Resolve returns the credential for a wallet name.
func (s *WalletStore) Resolve(name string) (WalletCredential, error) {
	cred, ok := s.creds[name]
	if !ok {
		return WalletCredential{}, errors.Wrap(exception.ErrConfigUnknownWallet, name)
	}
	return cred, nil
}

// All returns every stored credential.
func (s *WalletStore) All() []WalletCredential {
	out := make([]WalletCredential, 0, len(s.creds))
	for _, cred := range s.creds {
		out = append(out, cred)
	}
	return out
}

// CheckTasks verifies that every wallet referenced by the loaded tasks
// resolves to a credential. Startup fails otherwise.
func (s *WalletStore) CheckTasks(loaded Loaded) error {
	for _, task := range loaded.Tasks {
		if _, err := s.Resolve(task.WalletName); err != nil {
			return err
		}
	}
	return nil
}
