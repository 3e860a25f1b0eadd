package orchestrator

import "github.com/cyclopcam/logs"

// nopLog discards everything
type nopLog struct{}

var _ logs.Log = nopLog{}

func (nopLog) Close()                           {}
func (nopLog) Debugf(string, ...interface{})    {}
func (nopLog) Infof(string, ...interface{})     {}
func (nopLog) Warnf(string, ...interface{})     {}
func (nopLog) Errorf(string, ...interface{})    {}
func (nopLog) Criticalf(string, ...interface{}) {}
