// Meter API is responsible for reading the P1 port and broadcasting the
// decoded telegrams.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rneurink/P1MeterParser/pkg/config"
	"github.com/rneurink/P1MeterParser/pkg/port_reader"
	"github.com/rneurink/P1MeterParser/pkg/solarinverter"
	"github.com/rneurink/P1MeterParser/pkg/types"
)

var p1Reader *port_reader.P1Reader

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// ws clients for broadcasting decoded telegrams
var (
	wsClients                   = make(map[*websocket.Conn]bool)
	wsClientsMutex sync.RWMutex = sync.RWMutex{}
)

func main() {
	// Load config
	if err := config.LoadMeterAPIConfig(); err != nil {
		log.Fatalf("Failed to load meter API config: %v", err)
	}

	// Start P1 reader
	p1Reader = port_reader.NewP1Reader(
		config.ActiveMeterAPIConfig.SerialDevice,
		config.ActiveMeterAPIConfig.Baudrate,
	)
	if s := config.ActiveMeterAPIConfig.AssemblyTimeoutSeconds; s > 0 {
		p1Reader.SetAssemblyTimeout(time.Duration(s) * time.Second)
	}

	// Start reading P1 port and handle signals/errors
	p1Reader.StartReading(
		func(data *types.P1Data) {
			if !data.ValidCRC {
				log.Println("Dropping telegram with invalid CRC")
				return
			}
			BroadcastToWebSockets(data)
		},
		func(err error) {
			if err != nil {
				log.Fatalf("Error reading P1 port: %v", err)
			}
		},
	)

	// Setup HTTP handlers
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"message": "P1 Meter API",
			"status":  "running",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	http.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		data := p1Reader.GetLatestData()
		w.Header().Set("Content-Type", "application/json")
		if data == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "No telegrams received yet",
			})
			return
		}

		json.NewEncoder(w).Encode(data)
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		AddWebSocketClient(conn)

		// Send current telegram immediately if available
		if data := p1Reader.GetLatestData(); data != nil {
			conn.WriteMessage(websocket.TextMessage, data.ToJsonBytes())
		}

		// Keep connection alive
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				RemoveWebSocketClient(conn)
				break
			}
		}
	})

	// May be fast or slow depending on cached response from inverter.
	http.HandleFunc("/solar", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		power, err := solarinverter.ReadSolarData()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]int32{
			"currentProduction": power,
		})
	})

	listener := fmt.Sprintf("%s:%d", config.ActiveMeterAPIConfig.ListenAddress, config.ActiveMeterAPIConfig.ListenPort)

	log.Printf("Starting P1 Meter API on %s", listener)
	log.Fatal(http.ListenAndServe(listener, nil))
}

func BroadcastToWebSockets(data *types.P1Data) {
	wsClientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(wsClients))
	for client := range wsClients {
		clients = append(clients, client)
	}
	wsClientsMutex.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data.ToJsonBytes()); err != nil {
			RemoveWebSocketClient(client)
		}
	}
}

func AddWebSocketClient(conn *websocket.Conn) {
	wsClientsMutex.Lock()
	wsClients[conn] = true
	wsClientsMutex.Unlock()
}

func RemoveWebSocketClient(conn *websocket.Conn) {
	wsClientsMutex.Lock()
	delete(wsClients, conn)
	wsClientsMutex.Unlock()
	conn.Close()
}
