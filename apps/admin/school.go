package main

import (
	"context"
	"fmt"

	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/school"
)

// addSchool registers a school and its administrator account.
func (cli *commandLine) addSchool(email, pwd, name, city string) error {
	sr := account.SchoolRegistration{
		Email:    email,
		Password: pwd,
		Details:  school.Details{Name: name, City: city},
	}
	if err := sr.Validate(cli.validate); err != nil {
		return err
	}
	sch, err := cli.accountSvc.RegisterSchool(context.Background(), sr)
	if err != nil {
		return err
	}
	fmt.Printf("school %q registered (id %s)\n", sch.Name, sch.ID)
	return nil
}
