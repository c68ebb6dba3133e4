package main

import (
	"testing"

	"github.com/fulldump/biff"
)

func TestSelectBenchmarks(t *testing.T) {

	selected, err := selectBenchmarks("all")
	biff.AssertNil(err)
	biff.AssertEqual(selected, []string{"CHURN", "INSERT"})

	selected, err = selectBenchmarks(" churn, insert ,")
	biff.AssertNil(err)
	biff.AssertEqual(selected, []string{"CHURN", "INSERT"})

	_, err = selectBenchmarks("insert,patch")
	biff.AssertNotNil(err)
}
