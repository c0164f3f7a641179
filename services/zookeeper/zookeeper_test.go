package zookeeper

import (
	"testing"
	"time"
)

func TestNormalizeAddrs(t *testing.T) {
	got := NormalizeAddrs([]string{" zk1:2181", "", "zk2:2181 ", "  "})
	if len(got) != 2 || got[0] != "zk1:2181" || got[1] != "zk2:2181" {
		t.Errorf("NormalizeAddrs = %v", got)
	}
}

func TestConnectRequiresServers(t *testing.T) {
	if _, err := Connect(nil, time.Second, nil); err != ErrNoServers {
		t.Errorf("expected ErrNoServers, got %v", err)
	}
	if _, err := Connect([]string{" ", ""}, time.Second, nil); err != ErrNoServers {
		t.Errorf("expected ErrNoServers for blank entries, got %v", err)
	}
}

func TestConnectToQuorum(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test.")
	}

	session, err := Connect([]string{"127.0.0.1:2181"}, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("could not open session: %v", err)
	}
	defer session.Close()

	if _, _, err := session.Conn.Exists("/"); err != nil {
		t.Errorf("could not stat the root node: %v", err)
	}
}
