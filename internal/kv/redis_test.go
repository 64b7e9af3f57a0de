package kv

import "testing"

func TestOpen_EmptyURL(t *testing.T) {
	client, err := Open("")
	if err == nil {
		if client != nil {
			client.Close()
		}
		t.Fatal("Open with empty URL should return error")
	}
	if client != nil {
		t.Error("Open should return nil client on error")
	}
}

func TestOpen_InvalidURL(t *testing.T) {
	client, err := Open("not-a-redis-url")
	if err == nil {
		if client != nil {
			client.Close()
		}
		t.Fatal("Open with invalid URL should return error")
	}
	if client != nil {
		t.Error("Open should return nil client on error")
	}
}
