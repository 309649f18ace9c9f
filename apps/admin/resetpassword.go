package main

import "context"

// resetPassword replaces the password of an account. A pending default password is cleared.
func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.identitySvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.identitySvc.SetPassword(ctx, usr, pwd)
	return err
}
