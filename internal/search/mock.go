package search

import (
	"github.com/stretchr/testify/mock"
)

// MockMatcher is a mock implementation of Matcher for testing.
type MockMatcher struct {
	mock.Mock
}

// Match provides a mock function with given fields: name, pattern.
func (_m *MockMatcher) Match(name string, pattern []rune) (int, []int, bool) {
	ret := _m.Called(name, string(pattern))

	var r0 int
	if rf, ok := ret.Get(0).(func(string, []rune) int); ok {
		r0 = rf(name, pattern)
	} else {
		r0 = ret.Int(0)
	}

	var r1 []int
	if ret.Get(1) != nil {
		r1 = ret.Get(1).([]int)
	}

	return r0, r1, ret.Bool(2)
}

// Name provides a mock function with given fields: .
func (_m *MockMatcher) Name() string {
	ret := _m.Called()
	return ret.String(0)
}
