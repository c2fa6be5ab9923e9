package secretary

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		want    string
		wantErr bool
	}{
		{
			name: "Fenced Block Wins",
			resp: "Sure, here you go:\n```json\n{\"loan\": \"no\"}\n```\nHope that helps!",
			want: `{"loan": "no"}`,
		},
		{
			name: "Fenced Block Wins Over Earlier Braces",
			resp: "{not the answer} ```json\n{\"loan\": \"yes\"}\n```",
			want: `{"loan": "yes"}`,
		},
		{
			name: "Widest Brace Span",
			resp: `My reasoning: prices will rise. {"action_type": "buy", "stock": "A"} is my call.`,
			want: `{"action_type": "buy", "stock": "A"}`,
		},
		{
			name: "Unclosed Fence Falls Back To Braces",
			resp: "```json\n{\"loan\": \"no\"}",
			want: `{"loan": "no"}`,
		},
		{
			name:    "No JSON At All",
			resp:    "I think I will sit this one out.",
			wantErr: true,
		},
		{
			name:    "Empty Response",
			resp:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.resp)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
