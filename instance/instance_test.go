package instance_test

import (
	"testing"

	"github.com/gosimavr/gosimavr/instance"
	"github.com/gosimavr/gosimavr/test"
)

func TestNewIsDeterministicForAGivenSeed(t *testing.T) {
	a := instance.New(42)
	b := instance.New(42)

	test.ExpectEquality(t, a.Random.Uint64(), b.Random.Uint64())
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := instance.New(1)
	b := instance.New(2)

	test.ExpectEquality(t, a.Random.Uint64() == b.Random.Uint64(), false)
}

func TestNormaliseForTestPinsDeterministicZeroSeed(t *testing.T) {
	ins := instance.New(99)
	ins.RandomiseRAM = true

	ins.NormaliseForTest()
	test.ExpectEquality(t, ins.RandomiseRAM, false)

	want := instance.New(0)
	test.ExpectEquality(t, ins.Random.Uint64(), want.Random.Uint64())
}
